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

const requestColumns = `id, student_id, course_id, description, requested_tutor_id, status, decline_reason, created_at, updated_at`

type RequestRepository struct {
	*base.Repository
}

func NewRequestRepository(db base.DBTX) *RequestRepository {
	return &RequestRepository{Repository: base.NewRepository(db)}
}

// Create создаёт заявку
func (r *RequestRepository) Create(ctx context.Context, req *model.TutoringRequest) error {
	query := `
		INSERT INTO tutoring_requests (student_id, course_id, description, requested_tutor_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		req.StudentID,
		req.CourseID,
		req.Description,
		req.RequestedTutorID,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create tutoring request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*model.TutoringRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM tutoring_requests WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate получает заявку и блокирует строку до конца транзакции
func (r *RequestRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM tutoring_requests WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *RequestRepository) getOne(ctx context.Context, query string, id int64) (*model.TutoringRequest, error) {
	req, err := scanRequest(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tutoring request: %w", err)
	}
	return req, nil
}

// List получает заявки по фильтру, новые первыми
func (r *RequestRepository) List(ctx context.Context, filter model.RequestFilter) ([]*model.TutoringRequest, error) {
	where, args := buildRequestWhere(filter)
	query := `SELECT ` + requestColumns + ` FROM tutoring_requests` + where + ` ORDER BY created_at DESC, id DESC`

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tutoring requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.TutoringRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tutoring request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tutoring requests: %w", err)
	}

	return requests, nil
}

// Update сохраняет изменяемые поля заявки
func (r *RequestRepository) Update(ctx context.Context, req *model.TutoringRequest) error {
	query := `
		UPDATE tutoring_requests
		SET course_id = $1, description = $2, requested_tutor_id = $3, status = $4, decline_reason = $5, updated_at = $6
		WHERE id = $7
	`

	req.UpdatedAt = time.Now().UTC()
	affected, err := r.ExecAffected(
		ctx, query,
		req.CourseID,
		req.Description,
		req.RequestedTutorID,
		req.Status,
		req.DeclineReason,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("update tutoring request: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update tutoring request %d: %w", req.ID, ErrNotFound)
	}

	return nil
}

// Delete удаляет заявку
func (r *RequestRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM tutoring_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tutoring request: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("delete tutoring request %d: %w", id, ErrNotFound)
	}

	return nil
}

func scanRequest(row pgx.Row) (*model.TutoringRequest, error) {
	var req model.TutoringRequest
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.CourseID,
		&req.Description,
		&req.RequestedTutorID,
		&req.Status,
		&req.DeclineReason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// buildRequestWhere собирает WHERE с позиционными параметрами
func buildRequestWhere(f model.RequestFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}

	if f.Status != nil {
		add("status = ?", string(*f.Status))
	}
	if f.StudentID != nil {
		add("student_id = ?", *f.StudentID)
	}
	if f.RequestedTutorID != nil {
		add("requested_tutor_id = ?", *f.RequestedTutorID)
	}
	if f.CourseID != nil {
		add("course_id = ?", *f.CourseID)
	}
	if f.VisibleTo != nil {
		add("(student_id = ? OR requested_tutor_id = ?)", *f.VisibleTo)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
