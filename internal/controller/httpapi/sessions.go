package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/tutoring_toolbox/internal/auth"
	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

// listSessions handles GET /sessions?tutor_id=&user_id=
func (a *API) listSessions(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.CallerFromContext(r.Context())
	q := r.URL.Query()

	var (
		filter model.SessionFilter
		err    error
	)
	if filter.TutorID, err = queryID(q, "tutor_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.StudentID, err = queryID(q, "user_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.RequestID, err = queryID(q, "request_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := a.sessions.List(r.Context(), caller, filter)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*model.TutoringSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	session, err := a.sessions.Get(r.Context(), caller, id)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) createSession(w http.ResponseWriter, r *http.Request) {
	var p createSessionPayload
	if !a.decode(w, r, &p, false) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	session, err := a.sessions.CreateSession(r.Context(), caller, p.RequestID, p.StartTime, p.EndTime)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *API) rescheduleSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p reschedulePayload
	if !a.decode(w, r, &p, false) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	session, err := a.sessions.Reschedule(r.Context(), caller, id, p.StartTime, p.EndTime)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (a *API) completeSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p completePayload
	if !a.decode(w, r, &p, false) {
		return
	}
	caller, _ := auth.CallerFromContext(r.Context())

	session, err := a.sessions.Complete(r.Context(), caller, id, *p.Attended, p.Notes)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
