package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/tutoring_toolbox/internal/auth"
	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

func (a *API) assignableTutors(w http.ResponseWriter, r *http.Request) {
	tutors, err := a.directory.AssignableTutors(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if tutors == nil {
		tutors = []*model.Tutor{}
	}
	writeJSON(w, http.StatusOK, tutors)
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.directory.Courses(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if courses == nil {
		courses = []*model.Course{}
	}
	writeJSON(w, http.StatusOK, courses)
}

type quotaResponse struct {
	*model.QuotaUsage
	HoursRemaining float64 `json:"hours_remaining"`
}

func (a *API) tutorQuota(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	usage, err := a.sessions.WeeklyUsage(r.Context(), caller, id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{QuotaUsage: usage, HoursRemaining: usage.Remaining()})
}
