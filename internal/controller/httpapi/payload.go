package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type createRequestPayload struct {
	StudentID        int64   `json:"user_id" validate:"omitempty,gt=0"`
	CourseID         int64   `json:"course_id" validate:"required,gt=0"`
	Description      *string `json:"description" validate:"omitempty,max=2000"`
	RequestedTutorID *int64  `json:"requested_tutor_id" validate:"omitempty,gt=0"`
}

type patchRequestPayload struct {
	CourseID    *int64  `json:"course_id" validate:"omitempty,gt=0"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending pending_tutor approved denied"`
}

type assignPayload struct {
	TutorID int64 `json:"tutor_id" validate:"required,gt=0"`
}

type denyPayload struct {
	Reason *string `json:"reason" validate:"omitempty,max=2000"`
}

type tutorResponsePayload struct {
	Accepted *bool `json:"accepted" validate:"required"`
}

type createSessionPayload struct {
	RequestID int64     `json:"request_id" validate:"required,gt=0"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type reschedulePayload struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
}

type completePayload struct {
	Attended *bool   `json:"attended" validate:"required"`
	Notes    *string `json:"notes" validate:"omitempty,max=4000"`
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads and validates a JSON body. An empty body is allowed when
// optional is set.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return false
		}
	}

	if err := a.validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve))
			for _, fe := range ve {
				fields[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, validationErrorResponse{Error: "invalid request body", Fields: fields})
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func queryID(q url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &id, nil
}
