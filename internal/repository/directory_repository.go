package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

type TutorRepository struct {
	*base.Repository
}

func NewTutorRepository(db base.DBTX) *TutorRepository {
	return &TutorRepository{Repository: base.NewRepository(db)}
}

// GetByID получает тутора по ID пользователя
func (r *TutorRepository) GetByID(ctx context.Context, userID int64) (*model.Tutor, error) {
	return r.getOne(ctx, `SELECT user_id, subjects, hourly_limit, active, created_at FROM tutors WHERE user_id = $1`, userID)
}

// GetByIDForUpdate блокирует строку тутора: все решения по его недельной
// квоте выполняются по очереди.
func (r *TutorRepository) GetByIDForUpdate(ctx context.Context, userID int64) (*model.Tutor, error) {
	return r.getOne(ctx, `SELECT user_id, subjects, hourly_limit, active, created_at FROM tutors WHERE user_id = $1 FOR UPDATE`, userID)
}

func (r *TutorRepository) getOne(ctx context.Context, query string, userID int64) (*model.Tutor, error) {
	var t model.Tutor
	err := r.QueryRow(ctx, query, userID).Scan(&t.UserID, &t.Subjects, &t.HourlyLimit, &t.Active, &t.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	return &t, nil
}

// ListActive получает активных туторов вместе с пользователями
func (r *TutorRepository) ListActive(ctx context.Context) ([]*model.Tutor, error) {
	query := `
		SELECT t.user_id, t.subjects, t.hourly_limit, t.active, t.created_at,
		       u.id, u.email, u.first_name, u.last_name, u.role, u.telegram_id, u.created_at
		FROM tutors t
		JOIN users u ON u.id = t.user_id
		WHERE t.active = true
		ORDER BY u.last_name, u.first_name
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active tutors: %w", err)
	}
	defer rows.Close()

	var tutors []*model.Tutor
	for rows.Next() {
		var (
			t model.Tutor
			u model.User
		)
		err := rows.Scan(
			&t.UserID, &t.Subjects, &t.HourlyLimit, &t.Active, &t.CreatedAt,
			&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.TelegramID, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tutor: %w", err)
		}
		t.User = &u
		tutors = append(tutors, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tutors: %w", err)
	}

	return tutors, nil
}

type CourseRepository struct {
	*base.Repository
}

func NewCourseRepository(db base.DBTX) *CourseRepository {
	return &CourseRepository{Repository: base.NewRepository(db)}
}

// GetByID получает курс по ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	var c model.Course
	err := r.QueryRow(ctx, `SELECT id, code, title, department FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Title, &c.Department)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return &c, nil
}

// List получает все курсы по коду
func (r *CourseRepository) List(ctx context.Context) ([]*model.Course, error) {
	rows, err := r.Query(ctx, `SELECT id, code, title, department FROM courses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var courses []*model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Title, &c.Department); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, &c)
	}

	return courses, rows.Err()
}

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DBTX) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, email, first_name, last_name, role, telegram_id, created_at FROM users WHERE id = $1`, id)
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return r.getOne(ctx, `SELECT id, email, first_name, last_name, role, telegram_id, created_at FROM users WHERE telegram_id = $1`, telegramID)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg int64) (*model.User, error) {
	var u model.User
	err := r.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.TelegramID, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
