package httpapi

import (
	"net/http"
	"strings"

	"github.com/Freeeeeet/tutoring_toolbox/internal/auth"
	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/service"
)

// listRequests handles GET /requests?status=&user_id=&requested_tutor_id=&course_id=
func (a *API) listRequests(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())
	q := r.URL.Query()

	var (
		filter model.RequestFilter
		err    error
	)
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := model.ParseRequestStatus(strings.ToLower(raw))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}
	if filter.StudentID, err = queryID(q, "user_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.RequestedTutorID, err = queryID(q, "requested_tutor_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.CourseID, err = queryID(q, "course_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests, err := a.requests.List(r.Context(), caller, filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if requests == nil {
		requests = []*model.TutoringRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (a *API) getRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	req, err := a.requests.Get(r.Context(), caller, id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) createRequest(w http.ResponseWriter, r *http.Request) {
	var p createRequestPayload
	if !a.decode(w, r, &p, false) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	req, err := a.requests.Create(r.Context(), caller, service.CreateRequestInput{
		StudentID:        p.StudentID,
		CourseID:         p.CourseID,
		Description:      p.Description,
		RequestedTutorID: p.RequestedTutorID,
	})
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// patchRequest edits course/description; status=pending reopens a denied request.
func (a *API) patchRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p patchRequestPayload
	if !a.decode(w, r, &p, false) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	in := service.UpdateRequestInput{CourseID: p.CourseID, Description: p.Description}
	if p.Status != nil {
		status := model.RequestStatus(*p.Status)
		in.Status = &status
	}

	req, err := a.requests.Update(r.Context(), caller, id, in)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) deleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	if err := a.requests.Delete(r.Context(), caller, id); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) assignRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p assignPayload
	if !a.decode(w, r, &p, false) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	req, err := a.requests.Assign(r.Context(), caller, id, p.TutorID)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) denyRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p denyPayload
	if !a.decode(w, r, &p, true) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	req, err := a.requests.Deny(r.Context(), caller, id, p.Reason)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *API) tutorResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p tutorResponsePayload
	if !a.decode(w, r, &p, false) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	req, err := a.requests.TutorRespond(r.Context(), caller, id, *p.Accepted)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
