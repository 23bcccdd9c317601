package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, request_id, tutor_id, student_id, course_id, start_time, end_time, status, attended, notes, created_at, updated_at`

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(db base.DBTX) *SessionRepository {
	return &SessionRepository{Repository: base.NewRepository(db)}
}

// Create создаёт новое занятие
func (r *SessionRepository) Create(ctx context.Context, session *model.TutoringSession) error {
	query := `
		INSERT INTO tutoring_sessions (request_id, tutor_id, student_id, course_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		session.RequestID,
		session.TutorID,
		session.StudentID,
		session.CourseID,
		session.StartTime,
		session.EndTime,
		session.Status,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID получает занятие по ID
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.TutoringSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM tutoring_sessions WHERE id = $1`, id)
}

// GetByIDForUpdate получает занятие с блокировкой строки
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM tutoring_sessions WHERE id = $1 FOR UPDATE`, id)
}

func (r *SessionRepository) getOne(ctx context.Context, query string, id int64) (*model.TutoringSession, error) {
	session, err := scanSession(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return session, nil
}

// List получает занятия по фильтру
func (r *SessionRepository) List(ctx context.Context, filter model.SessionFilter) ([]*model.TutoringSession, error) {
	where, args := buildSessionWhere(filter)
	query := `SELECT ` + sessionColumns + ` FROM tutoring_sessions` + where + ` ORDER BY id DESC`
	return r.list(ctx, query, args...)
}

// ListByTutorBetween получает занятия тутора, начинающиеся в [from, to)
func (r *SessionRepository) ListByTutorBetween(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.TutoringSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM tutoring_sessions
		WHERE tutor_id = $1
		  AND start_time >= $2
		  AND start_time < $3
		ORDER BY start_time
	`
	return r.list(ctx, query, tutorID, from, to)
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]*model.TutoringSession, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.TutoringSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// CountByRequest считает занятия, ссылающиеся на заявку
func (r *SessionRepository) CountByRequest(ctx context.Context, requestID int64) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM tutoring_sessions WHERE request_id = $1`, requestID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions by request: %w", err)
	}
	return count, nil
}

// Update сохраняет время, статус и итоги занятия.
// tutor_id, student_id и course_id не меняются после создания.
func (r *SessionRepository) Update(ctx context.Context, session *model.TutoringSession) error {
	query := `
		UPDATE tutoring_sessions
		SET start_time = $1, end_time = $2, status = $3, attended = $4, notes = $5, updated_at = $6
		WHERE id = $7
	`

	session.UpdatedAt = time.Now().UTC()
	affected, err := r.ExecAffected(
		ctx, query,
		session.StartTime,
		session.EndTime,
		session.Status,
		session.Attended,
		session.Notes,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update session %d: %w", session.ID, ErrNotFound)
	}

	return nil
}

func scanSession(row pgx.Row) (*model.TutoringSession, error) {
	var s model.TutoringSession
	err := row.Scan(
		&s.ID,
		&s.RequestID,
		&s.TutorID,
		&s.StudentID,
		&s.CourseID,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.Attended,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func buildSessionWhere(f model.SessionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.TutorID != nil {
		add("tutor_id = ?", *f.TutorID)
	}
	if f.StudentID != nil {
		add("student_id = ?", *f.StudentID)
	}
	if f.RequestID != nil {
		add("request_id = ?", *f.RequestID)
	}
	if f.Participant != nil {
		add("(tutor_id = ? OR student_id = ?)", *f.Participant)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
