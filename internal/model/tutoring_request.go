package model

import (
	"fmt"
	"time"
)

type RequestStatus string

const (
	RequestStatusPending      RequestStatus = "pending"       // ждёт назначения админом
	RequestStatusPendingTutor RequestStatus = "pending_tutor" // назначен тутор, ждём его ответа
	RequestStatusApproved     RequestStatus = "approved"      // тутор согласился
	RequestStatusDenied       RequestStatus = "denied"        // отклонено админом
)

// ParseRequestStatus проверяет статус, пришедший снаружи.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	status := RequestStatus(raw)
	switch status {
	case RequestStatusPending, RequestStatusPendingTutor, RequestStatusApproved, RequestStatusDenied:
		return status, nil
	default:
		return "", fmt.Errorf("unknown request status %q", raw)
	}
}

// IsTerminal: assign/deny и ответ тутора для статуса закрыты.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusApproved || s == RequestStatusDenied
}

// RequestAction действие над заявкой в машине состояний.
type RequestAction string

const (
	RequestActionAssign  RequestAction = "assign"
	RequestActionDeny    RequestAction = "deny"
	RequestActionAccept  RequestAction = "accept"
	RequestActionDecline RequestAction = "decline"
	RequestActionReopen  RequestAction = "reopen"
)

// Next возвращает статус после action или false, если перехода нет.
// Права участника проверяет вызывающий код.
func (s RequestStatus) Next(action RequestAction) (RequestStatus, bool) {
	switch s {
	case RequestStatusPending:
		switch action {
		case RequestActionAssign:
			return RequestStatusPendingTutor, true
		case RequestActionDeny:
			return RequestStatusDenied, true
		}
	case RequestStatusPendingTutor:
		switch action {
		case RequestActionAssign:
			return RequestStatusPendingTutor, true
		case RequestActionDeny:
			return RequestStatusDenied, true
		case RequestActionAccept:
			return RequestStatusApproved, true
		case RequestActionDecline:
			return RequestStatusPending, true
		}
	case RequestStatusDenied:
		if action == RequestActionReopen {
			return RequestStatusPending, true
		}
	case RequestStatusApproved:
	}
	return s, false
}

// TutoringRequest заявка студента на занятия по курсу.
type TutoringRequest struct {
	ID               int64         `json:"id"`
	StudentID        int64         `json:"student_id"`
	CourseID         int64         `json:"course_id"`
	Description      *string       `json:"description"`
	RequestedTutorID *int64        `json:"requested_tutor_id"` // авторитетен только для pending_tutor/approved
	Status           RequestStatus `json:"status"`
	DeclineReason    *string       `json:"decline_reason"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsAssignedTo: tutorID сейчас указан как тутор заявки.
func (r *TutoringRequest) IsAssignedTo(tutorID int64) bool {
	return r.RequestedTutorID != nil && *r.RequestedTutorID == tutorID
}

// AcceptsSessions: requestedTutorID значим только в pending_tutor и approved.
func (r *TutoringRequest) AcceptsSessions() bool {
	return r.Status == RequestStatusPendingTutor || r.Status == RequestStatusApproved
}

// VisibleTo: может ли не-админ видеть заявку.
func (r *TutoringRequest) VisibleTo(userID int64) bool {
	return r.StudentID == userID || r.IsAssignedTo(userID)
}

// AwaitsResponseFrom: заявка ждёт ответа именно этого тутора.
func (r *TutoringRequest) AwaitsResponseFrom(tutorID int64) bool {
	return r.Status == RequestStatusPendingTutor && r.IsAssignedTo(tutorID)
}

// RequestFilter фильтр списка заявок. nil поля игнорируются.
type RequestFilter struct {
	Status           *RequestStatus
	StudentID        *int64
	RequestedTutorID *int64
	CourseID         *int64
	// VisibleTo оставляет заявки, где пользователь студент или назначенный тутор.
	VisibleTo *int64
}

// Matches применяет фильтр в памяти.
func (f RequestFilter) Matches(r *TutoringRequest) bool {
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.StudentID != nil && r.StudentID != *f.StudentID {
		return false
	}
	if f.RequestedTutorID != nil && !r.IsAssignedTo(*f.RequestedTutorID) {
		return false
	}
	if f.CourseID != nil && r.CourseID != *f.CourseID {
		return false
	}
	if f.VisibleTo != nil && !r.VisibleTo(*f.VisibleTo) {
		return false
	}
	return true
}
