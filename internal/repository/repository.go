package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

// ErrNotFound is returned by mutations that target a missing row.
// Lookups follow the nil, nil convention instead.
var ErrNotFound = errors.New("not found")

type RequestRepo interface {
	Create(ctx context.Context, req *model.TutoringRequest) error
	GetByID(ctx context.Context, id int64) (*model.TutoringRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringRequest, error)
	List(ctx context.Context, filter model.RequestFilter) ([]*model.TutoringRequest, error)
	Update(ctx context.Context, req *model.TutoringRequest) error
	Delete(ctx context.Context, id int64) error
}

type SessionRepo interface {
	Create(ctx context.Context, session *model.TutoringSession) error
	GetByID(ctx context.Context, id int64) (*model.TutoringSession, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringSession, error)
	List(ctx context.Context, filter model.SessionFilter) ([]*model.TutoringSession, error)
	// ListByTutorBetween returns sessions of any status starting in [from, to).
	ListByTutorBetween(ctx context.Context, tutorID int64, from, to time.Time) ([]*model.TutoringSession, error)
	CountByRequest(ctx context.Context, requestID int64) (int, error)
	Update(ctx context.Context, session *model.TutoringSession) error
}

type TutorRepo interface {
	GetByID(ctx context.Context, userID int64) (*model.Tutor, error)
	// GetByIDForUpdate serializes quota decisions for one tutor.
	GetByIDForUpdate(ctx context.Context, userID int64) (*model.Tutor, error)
	ListActive(ctx context.Context) ([]*model.Tutor, error)
}

type CourseRepo interface {
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	List(ctx context.Context) ([]*model.Course, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
}

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Requests() RequestRepo
	Sessions() SessionRepo
	Tutors() TutorRepo
	Courses() CourseRepo
	Users() UserRepo
}

// Store is the persistence boundary used by the services.
type Store interface {
	Repos
	// InTx runs fn in one transaction: commit on nil, rollback on error.
	InTx(ctx context.Context, fn func(tx Repos) error) error
}
