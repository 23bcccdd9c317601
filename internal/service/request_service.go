package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/audit"
	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/notify"
	"github.com/Freeeeeet/tutoring_toolbox/internal/obs"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
)

const maxDescriptionLength = 2000

type RequestService struct {
	store    repository.Store
	notifier notify.Notifier
	audit    *audit.Logger
	logger   *zap.Logger
}

func NewRequestService(store repository.Store, notifier notify.Notifier, auditLog *audit.Logger, logger *zap.Logger) *RequestService {
	return &RequestService{
		store:    store,
		notifier: notifier,
		audit:    auditLog,
		logger:   logger,
	}
}

// CreateRequestInput описывает новую заявку.
type CreateRequestInput struct {
	// StudentID учитывается только для админа; студент создаёт заявку на себя.
	StudentID        int64
	CourseID         int64
	Description      *string
	RequestedTutorID *int64
}

// Create регистрирует заявку студента в статусе pending.
func (s *RequestService) Create(ctx context.Context, caller model.Caller, in CreateRequestInput) (*model.TutoringRequest, error) {
	studentID := caller.ID
	if caller.IsAdmin() && in.StudentID != 0 {
		studentID = in.StudentID
	} else if in.StudentID != 0 && in.StudentID != caller.ID {
		return nil, forbiddenf("students can only create requests for themselves")
	}

	if in.CourseID <= 0 {
		return nil, validationf("course_id is required")
	}
	description, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}

	req := &model.TutoringRequest{
		StudentID:        studentID,
		CourseID:         in.CourseID,
		Description:      description,
		RequestedTutorID: in.RequestedTutorID,
		Status:           model.RequestStatusPending,
	}

	err = s.store.InTx(ctx, func(tx repository.Repos) error {
		student, err := tx.Users().GetByID(ctx, studentID)
		if err != nil {
			return fmt.Errorf("get student: %w", err)
		}
		if student == nil {
			return notFoundf("student %d", studentID)
		}

		course, err := tx.Courses().GetByID(ctx, in.CourseID)
		if err != nil {
			return fmt.Errorf("get course: %w", err)
		}
		if course == nil {
			return notFoundf("course %d", in.CourseID)
		}

		if in.RequestedTutorID != nil {
			tutor, err := tx.Tutors().GetByID(ctx, *in.RequestedTutorID)
			if err != nil {
				return fmt.Errorf("get tutor: %w", err)
			}
			if tutor == nil {
				return notFoundf("tutor %d", *in.RequestedTutorID)
			}
		}

		return tx.Requests().Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tutoring request created",
		zap.Int64("tutoring_request_id", req.ID),
		zap.Int64("student_id", req.StudentID),
		zap.Int64("course_id", req.CourseID),
	)
	s.audit.Record(ctx, "request.created",
		zap.Int64("tutoring_request_id", req.ID),
		zap.Int64("student_id", req.StudentID),
	)

	return req, nil
}

// Get возвращает заявку, если вызывающий её видит.
func (s *RequestService) Get(ctx context.Context, caller model.Caller, id int64) (*model.TutoringRequest, error) {
	req, err := s.store.Requests().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tutoring request: %w", err)
	}
	if req == nil {
		return nil, notFoundf("tutoring request %d", id)
	}
	if !caller.IsAdmin() && !req.VisibleTo(caller.ID) {
		return nil, forbiddenf("tutoring request %d is not visible to user %d", id, caller.ID)
	}
	return req, nil
}

// List возвращает заявки по фильтру. Не-админ видит свои заявки и те,
// где он сейчас назначен тутором.
func (s *RequestService) List(ctx context.Context, caller model.Caller, filter model.RequestFilter) ([]*model.TutoringRequest, error) {
	if !caller.IsAdmin() {
		me := caller.ID
		filter.VisibleTo = &me
	}

	requests, err := s.store.Requests().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tutoring requests: %w", err)
	}
	return requests, nil
}

// Assign предлагает заявку тутору tutorID. Повторное назначение в
// pending_tutor заменяет прежнего тутора.
func (s *RequestService) Assign(ctx context.Context, caller model.Caller, requestID, tutorID int64) (*model.TutoringRequest, error) {
	if !caller.IsAdmin() {
		return nil, forbiddenf("only admins can assign tutors")
	}

	req, err := s.transition(ctx, requestID, requestStep{
		action: model.RequestActionAssign,
		apply: func(tx repository.Repos, req *model.TutoringRequest) error {
			tutor, err := tx.Tutors().GetByID(ctx, tutorID)
			if err != nil {
				return fmt.Errorf("get tutor: %w", err)
			}
			if tutor == nil {
				return notFoundf("tutor %d", tutorID)
			}
			if !tutor.Active {
				return validationf("tutor %d is not active", tutorID)
			}
			req.RequestedTutorID = &tutorID
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	s.deliver(ctx, notify.Event{
		Kind:        notify.KindRequestAssigned,
		RecipientID: tutorID,
		RequestID:   req.ID,
		Text:        fmt.Sprintf("📥 You were asked to tutor request #%d. Reply with /accept %d or /decline %d.", req.ID, req.ID, req.ID),
	})
	return req, nil
}

// Deny закрывает заявку. requestedTutorID остаётся как был.
func (s *RequestService) Deny(ctx context.Context, caller model.Caller, requestID int64, reason *string) (*model.TutoringRequest, error) {
	if !caller.IsAdmin() {
		return nil, forbiddenf("only admins can deny requests")
	}
	reason, err := normalizeDescription(reason)
	if err != nil {
		return nil, err
	}

	req, err := s.transition(ctx, requestID, requestStep{
		action: model.RequestActionDeny,
		apply: func(_ repository.Repos, req *model.TutoringRequest) error {
			req.DeclineReason = reason
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf("🚫 Your tutoring request #%d was denied.", req.ID)
	if reason != nil {
		text += " Reason: " + *reason
	}
	s.deliver(ctx, notify.Event{
		Kind:        notify.KindRequestDenied,
		RecipientID: req.StudentID,
		RequestID:   req.ID,
		Text:        text,
	})
	return req, nil
}

// TutorRespond записывает ответ назначенного тутора. Отказ возвращает
// заявку админам без тутора.
func (s *RequestService) TutorRespond(ctx context.Context, caller model.Caller, requestID int64, accept bool) (*model.TutoringRequest, error) {
	action := model.RequestActionDecline
	if accept {
		action = model.RequestActionAccept
	}

	req, err := s.transition(ctx, requestID, requestStep{
		action: action,
		guard: func(req *model.TutoringRequest) error {
			if !req.AwaitsResponseFrom(caller.ID) {
				return forbiddenf("tutoring request %d is not awaiting a response from user %d", req.ID, caller.ID)
			}
			return nil
		},
		apply: func(_ repository.Repos, req *model.TutoringRequest) error {
			if !accept {
				req.RequestedTutorID = nil
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	ev := notify.Event{
		Kind:        notify.KindRequestAccepted,
		RecipientID: req.StudentID,
		RequestID:   req.ID,
		Text:        fmt.Sprintf("✅ A tutor accepted your request #%d.", req.ID),
	}
	if !accept {
		ev.Kind = notify.KindRequestDeclined
		ev.Text = fmt.Sprintf("↩️ The tutor declined request #%d, it is back in the queue.", req.ID)
	}
	s.deliver(ctx, ev)
	return req, nil
}

// Reopen возвращает отклонённую заявку в pending.
func (s *RequestService) Reopen(ctx context.Context, caller model.Caller, requestID int64) (*model.TutoringRequest, error) {
	if !caller.IsAdmin() {
		return nil, forbiddenf("only admins can reopen requests")
	}
	return s.transition(ctx, requestID, requestStep{
		action: model.RequestActionReopen,
		apply:  reopenFields,
	})
}

// UpdateRequestInput частичное обновление. Status можно выставить только
// в pending, это переоткрывает отклонённую заявку.
type UpdateRequestInput struct {
	CourseID    *int64
	Description *string
	Status      *model.RequestStatus
}

// Update меняет курс и описание и при необходимости переоткрывает заявку
// в одной транзакции.
func (s *RequestService) Update(ctx context.Context, caller model.Caller, requestID int64, in UpdateRequestInput) (*model.TutoringRequest, error) {
	if in.Status != nil {
		if *in.Status != model.RequestStatusPending {
			return nil, fmt.Errorf("%w: status can only be set to %s", ErrInvalidTransition, model.RequestStatusPending)
		}
		if !caller.IsAdmin() {
			return nil, forbiddenf("only admins can reopen requests")
		}
	}
	if in.CourseID != nil && *in.CourseID <= 0 {
		return nil, validationf("course_id must be positive")
	}
	description, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}

	var (
		req      *model.TutoringRequest
		previous model.RequestStatus
	)
	err = s.store.InTx(ctx, func(tx repository.Repos) error {
		var err error
		req, err = tx.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get tutoring request: %w", err)
		}
		if req == nil {
			return notFoundf("tutoring request %d", requestID)
		}
		if !caller.IsAdmin() && req.StudentID != caller.ID {
			return forbiddenf("only the owning student or an admin can edit request %d", requestID)
		}
		previous = req.Status

		if in.Status != nil {
			next, ok := req.Status.Next(model.RequestActionReopen)
			if !ok {
				return fmt.Errorf("%w: cannot reopen request in status %s", ErrInvalidTransition, req.Status)
			}
			req.Status = next
			if err := reopenFields(tx, req); err != nil {
				return err
			}
		}

		if in.CourseID != nil || in.Description != nil {
			if req.Status.IsTerminal() {
				return fmt.Errorf("%w: request %d is %s", ErrInvalidState, requestID, req.Status)
			}
		}
		if in.CourseID != nil {
			course, err := tx.Courses().GetByID(ctx, *in.CourseID)
			if err != nil {
				return fmt.Errorf("get course: %w", err)
			}
			if course == nil {
				return notFoundf("course %d", *in.CourseID)
			}
			req.CourseID = *in.CourseID
		}
		if in.Description != nil {
			req.Description = description
		}

		return tx.Requests().Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	if previous != req.Status {
		s.committed(ctx, model.RequestActionReopen, previous, req)
	} else {
		s.audit.Record(ctx, "request.updated", zap.Int64("tutoring_request_id", req.ID))
	}
	return req, nil
}

// Delete удаляет заявку, на которую не ссылается ни одно занятие.
func (s *RequestService) Delete(ctx context.Context, caller model.Caller, requestID int64) error {
	if !caller.IsAdmin() {
		return forbiddenf("only admins can delete requests")
	}

	err := s.store.InTx(ctx, func(tx repository.Repos) error {
		req, err := tx.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get tutoring request: %w", err)
		}
		if req == nil {
			return notFoundf("tutoring request %d", requestID)
		}

		count, err := tx.Sessions().CountByRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: request %d has %d sessions", ErrInvalidState, requestID, count)
		}

		if err := tx.Requests().Delete(ctx, requestID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFoundf("tutoring request %d", requestID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Tutoring request deleted", zap.Int64("tutoring_request_id", requestID))
	s.audit.Record(ctx, "request.deleted", zap.Int64("tutoring_request_id", requestID))
	return nil
}

// requestStep один переход машины состояний заявки.
// guard до проверки перехода, apply после.
type requestStep struct {
	action model.RequestAction
	guard  func(req *model.TutoringRequest) error
	apply  func(tx repository.Repos, req *model.TutoringRequest) error
}

// transition блокирует строку заявки, проверяет переход и сохраняет
// результат. При любой ошибке ничего не пишется.
func (s *RequestService) transition(ctx context.Context, requestID int64, step requestStep) (*model.TutoringRequest, error) {
	var (
		req      *model.TutoringRequest
		previous model.RequestStatus
	)

	err := s.store.InTx(ctx, func(tx repository.Repos) error {
		var err error
		req, err = tx.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get tutoring request: %w", err)
		}
		if req == nil {
			return notFoundf("tutoring request %d", requestID)
		}

		if step.guard != nil {
			if err := step.guard(req); err != nil {
				return err
			}
		}

		next, ok := req.Status.Next(step.action)
		if !ok {
			return fmt.Errorf("%w: cannot %s request in status %s", ErrInvalidTransition, step.action, req.Status)
		}

		previous = req.Status
		req.Status = next
		if step.apply != nil {
			if err := step.apply(tx, req); err != nil {
				return err
			}
		}

		return tx.Requests().Update(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, step.action, previous, req)
	return req, nil
}

func (s *RequestService) committed(ctx context.Context, action model.RequestAction, from model.RequestStatus, req *model.TutoringRequest) {
	obs.RequestTransition(string(action), string(req.Status))

	fields := []zap.Field{
		zap.Int64("tutoring_request_id", req.ID),
		zap.String("action", string(action)),
		zap.String("from", string(from)),
		zap.String("to", string(req.Status)),
	}
	if req.RequestedTutorID != nil {
		fields = append(fields, zap.Int64("requested_tutor_id", *req.RequestedTutorID))
	}

	s.logger.Info("Tutoring request transitioned", fields...)
	s.audit.Record(ctx, "request."+string(action), fields...)
}

// deliver уведомляет после коммита; ошибка доставки только логируется.
func (s *RequestService) deliver(ctx context.Context, ev notify.Event) {
	deliver(ctx, s.notifier, s.logger, ev)
}

func deliver(ctx context.Context, n notify.Notifier, logger *zap.Logger, ev notify.Event) {
	if n == nil {
		return
	}
	base := notify.NewEvent(ev.Kind, ev.RecipientID, ev.Text)
	base.RequestID = ev.RequestID
	base.SessionID = ev.SessionID

	if err := n.Notify(ctx, base); err != nil {
		logger.Warn("Failed to deliver notification",
			zap.String("kind", string(ev.Kind)),
			zap.Int64("recipient_id", ev.RecipientID),
			zap.Error(err),
		)
	}
}

// reopenFields сбрасывает данные прошлого цикла назначения.
func reopenFields(_ repository.Repos, req *model.TutoringRequest) error {
	req.RequestedTutorID = nil
	req.DeclineReason = nil
	return nil
}

func normalizeDescription(in *string) (*string, error) {
	if in == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*in)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxDescriptionLength {
		return nil, validationf("text must be at most %d characters", maxDescriptionLength)
	}
	return &trimmed, nil
}
