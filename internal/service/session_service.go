package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/audit"
	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/notify"
	"github.com/Freeeeeet/tutoring_toolbox/internal/obs"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
)

const maxNotesLength = 4000

// SessionOptions настройки планировщика занятий.
type SessionOptions struct {
	// RequireApprovedRequest: занятия только по заявкам в approved.
	RequireApprovedRequest bool
	// Now часы для якоря недели квоты. По умолчанию time.Now.
	Now func() time.Time
}

type SessionService struct {
	store           repository.Store
	ledger          *QuotaLedger
	notifier        notify.Notifier
	audit           *audit.Logger
	logger          *zap.Logger
	requireApproved bool
	now             func() time.Time
}

func NewSessionService(
	store repository.Store,
	ledger *QuotaLedger,
	notifier notify.Notifier,
	auditLog *audit.Logger,
	logger *zap.Logger,
	opts SessionOptions,
) *SessionService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		store:           store,
		ledger:          ledger,
		notifier:        notifier,
		audit:           auditLog,
		logger:          logger,
		requireApproved: opts.RequireApprovedRequest,
		now:             now,
	}
}

// CreateSession бронирует [start, end) для тутора заявки после проверки
// недельной квоты. Заявка, тутор и новое занятие в одной транзакции под
// блокировкой строки тутора.
func (s *SessionService) CreateSession(ctx context.Context, caller model.Caller, requestID int64, start, end time.Time) (*model.TutoringSession, error) {
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}
	asOf := s.now()

	var session *model.TutoringSession
	err := s.store.InTx(ctx, func(tx repository.Repos) error {
		req, err := tx.Requests().GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get tutoring request: %w", err)
		}
		if req == nil {
			return notFoundf("tutoring request %d", requestID)
		}
		if !req.IsAssignedTo(caller.ID) {
			return forbiddenf("only the assigned tutor can create sessions for request %d", requestID)
		}
		if !req.AcceptsSessions() {
			return fmt.Errorf("%w: request %d is %s, sessions need a pending_tutor or approved request", ErrInvalidTransition, requestID, req.Status)
		}
		if s.requireApproved && req.Status != model.RequestStatusApproved {
			return fmt.Errorf("%w: request %d is %s, sessions need an approved request", ErrInvalidTransition, requestID, req.Status)
		}

		tutor, err := tx.Tutors().GetByIDForUpdate(ctx, caller.ID)
		if err != nil {
			return fmt.Errorf("get tutor: %w", err)
		}
		if tutor == nil {
			return notFoundf("tutor %d", caller.ID)
		}

		if err := s.ledger.Check(ctx, tx.Sessions(), tutor, asOf, end.Sub(start), 0); err != nil {
			return err
		}

		session = &model.TutoringSession{
			RequestID: req.ID,
			TutorID:   tutor.UserID,
			StudentID: req.StudentID,
			CourseID:  req.CourseID,
			StartTime: start.UTC(),
			EndTime:   end.UTC(),
			Status:    model.SessionStatusScheduled,
		}
		return tx.Sessions().Create(ctx, session)
	})
	if err != nil {
		s.rejected(requestID, err)
		return nil, err
	}

	obs.SessionCreated()
	s.logger.Info("Tutoring session scheduled",
		zap.Int64("session_id", session.ID),
		zap.Int64("tutoring_request_id", session.RequestID),
		zap.Int64("tutor_id", session.TutorID),
		zap.Time("start_time", session.StartTime),
		zap.Duration("duration", session.Duration()),
	)
	s.audit.Record(ctx, "session.created",
		zap.Int64("session_id", session.ID),
		zap.Int64("tutoring_request_id", session.RequestID),
	)
	deliver(ctx, s.notifier, s.logger, notify.Event{
		Kind:        notify.KindSessionScheduled,
		RecipientID: session.StudentID,
		RequestID:   session.RequestID,
		SessionID:   session.ID,
		Text: fmt.Sprintf("📅 Session scheduled: %s - %s (UTC).",
			session.StartTime.Format("Mon 02 Jan 15:04"), session.EndTime.Format("15:04")),
	})

	return session, nil
}

// Reschedule переносит занятие. Квота проверяется так же, как в
// CreateSession, без текущих часов самого занятия.
func (s *SessionService) Reschedule(ctx context.Context, caller model.Caller, sessionID int64, start, end time.Time) (*model.TutoringSession, error) {
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}
	asOf := s.now()

	var session *model.TutoringSession
	err := s.store.InTx(ctx, func(tx repository.Repos) error {
		var err error
		session, err = s.lockOwnScheduled(ctx, tx, caller, sessionID, "reschedule")
		if err != nil {
			return err
		}

		tutor, err := tx.Tutors().GetByIDForUpdate(ctx, session.TutorID)
		if err != nil {
			return fmt.Errorf("get tutor: %w", err)
		}
		if tutor == nil {
			return notFoundf("tutor %d", session.TutorID)
		}
		if err := s.ledger.Check(ctx, tx.Sessions(), tutor, asOf, end.Sub(start), session.ID); err != nil {
			return err
		}

		session.StartTime = start.UTC()
		session.EndTime = end.UTC()
		return tx.Sessions().Update(ctx, session)
	})
	if err != nil {
		s.rejected(0, err)
		return nil, err
	}

	s.logger.Info("Tutoring session rescheduled",
		zap.Int64("session_id", session.ID),
		zap.Time("start_time", session.StartTime),
		zap.Time("end_time", session.EndTime),
	)
	s.audit.Record(ctx, "session.rescheduled", zap.Int64("session_id", session.ID))
	return session, nil
}

// Complete закрывает занятие с итогом. Повторный вызов даёт ErrInvalidState.
func (s *SessionService) Complete(ctx context.Context, caller model.Caller, sessionID int64, attended bool, notes *string) (*model.TutoringSession, error) {
	notes, err := normalizeNotes(notes)
	if err != nil {
		return nil, err
	}

	var session *model.TutoringSession
	err = s.store.InTx(ctx, func(tx repository.Repos) error {
		var err error
		session, err = s.lockOwnScheduled(ctx, tx, caller, sessionID, "complete")
		if err != nil {
			return err
		}

		session.Status = model.SessionStatusCompleted
		session.Attended = &attended
		session.Notes = notes
		return tx.Sessions().Update(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tutoring session completed",
		zap.Int64("session_id", session.ID),
		zap.Bool("attended", attended),
	)
	s.audit.Record(ctx, "session.completed",
		zap.Int64("session_id", session.ID),
		zap.Bool("attended", attended),
	)
	return session, nil
}

// lockOwnScheduled блокирует строку занятия и проверяет, что вызывающий
// может вывести его из scheduled.
func (s *SessionService) lockOwnScheduled(ctx context.Context, tx repository.Repos, caller model.Caller, sessionID int64, verb string) (*model.TutoringSession, error) {
	session, err := tx.Sessions().GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, notFoundf("session %d", sessionID)
	}
	if session.TutorID != caller.ID {
		return nil, forbiddenf("only the tutor can %s session %d", verb, sessionID)
	}
	if !session.Status.CanTransitionTo(model.SessionStatusCompleted) {
		return nil, fmt.Errorf("%w: session %d is %s", ErrInvalidState, sessionID, session.Status)
	}
	return session, nil
}

// Get возвращает занятие, в котором участвует вызывающий.
func (s *SessionService) Get(ctx context.Context, caller model.Caller, id int64) (*model.TutoringSession, error) {
	session, err := s.store.Sessions().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, notFoundf("session %d", id)
	}
	if !caller.IsAdmin() && !session.HasParticipant(caller.ID) {
		return nil, forbiddenf("session %d is not visible to user %d", id, caller.ID)
	}
	return session, nil
}

// List: админ видит всё, остальные только свои занятия.
func (s *SessionService) List(ctx context.Context, caller model.Caller, filter model.SessionFilter) ([]*model.TutoringSession, error) {
	if !caller.IsAdmin() {
		me := caller.ID
		filter.Participant = &me
	}

	sessions, err := s.store.Sessions().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// WeeklyUsage показывает текущую неделю квоты тутору или админу.
func (s *SessionService) WeeklyUsage(ctx context.Context, caller model.Caller, tutorID int64) (*model.QuotaUsage, error) {
	if !caller.IsAdmin() && caller.ID != tutorID {
		return nil, forbiddenf("quota of tutor %d is not visible to user %d", tutorID, caller.ID)
	}

	tutor, err := s.store.Tutors().GetByID(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor == nil {
		return nil, notFoundf("tutor %d", tutorID)
	}

	return s.ledger.Usage(ctx, s.store.Sessions(), tutor, s.now())
}

// SnapshotWeeklyHours публикует занятые часы всех активных туторов.
func (s *SessionService) SnapshotWeeklyHours(ctx context.Context) (int, error) {
	tutors, err := s.store.Tutors().ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active tutors: %w", err)
	}

	asOf := s.now()
	for _, tutor := range tutors {
		usage, err := s.ledger.Usage(ctx, s.store.Sessions(), tutor, asOf)
		if err != nil {
			return 0, err
		}
		obs.SetTutorWeeklyHours(tutor.UserID, usage.HoursUsed)
	}
	return len(tutors), nil
}

func (s *SessionService) rejected(requestID int64, err error) {
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		return
	}
	obs.QuotaRejected()
	s.logger.Info("Session rejected by weekly quota",
		zap.Int64("tutoring_request_id", requestID),
		zap.Float64("hours_used", quotaErr.HoursUsed),
		zap.Float64("attempting_to_add", quotaErr.AttemptingToAdd),
		zap.Int("weekly_limit", quotaErr.WeeklyLimit),
	)
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return validationf("start_time and end_time are required")
	}
	if !end.After(start) {
		return validationf("end_time must be after start_time")
	}
	return nil
}

func normalizeNotes(in *string) (*string, error) {
	if in == nil {
		return nil, nil
	}
	if len([]rune(*in)) > maxNotesLength {
		return nil, validationf("notes must be at most %d characters", maxNotesLength)
	}
	notes := *in
	return &notes, nil
}
