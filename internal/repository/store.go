package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_toolbox/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgRepos привязывает все репозитории к одному соединению или транзакции.
type pgRepos struct {
	requests *RequestRepository
	sessions *SessionRepository
	tutors   *TutorRepository
	courses  *CourseRepository
	users    *UserRepository
}

func newPgRepos(db base.DBTX) *pgRepos {
	return &pgRepos{
		requests: NewRequestRepository(db),
		sessions: NewSessionRepository(db),
		tutors:   NewTutorRepository(db),
		courses:  NewCourseRepository(db),
		users:    NewUserRepository(db),
	}
}

func (r *pgRepos) Requests() RequestRepo { return r.requests }
func (r *pgRepos) Sessions() SessionRepo { return r.sessions }
func (r *pgRepos) Tutors() TutorRepo     { return r.tutors }
func (r *pgRepos) Courses() CourseRepo   { return r.courses }
func (r *pgRepos) Users() UserRepo       { return r.users }

// txBeginner то, что PgStore берёт от *pgxpool.Pool.
type txBeginner interface {
	base.DBTX
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// PgStore реализация Store на PostgreSQL.
type PgStore struct {
	*pgRepos
	db txBeginner
}

var _ Store = (*PgStore)(nil)

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return newPgStore(pool)
}

func newPgStore(db txBeginner) *PgStore {
	return &PgStore{
		pgRepos: newPgRepos(db),
		db:      db,
	}
}

// InTx выполняет fn в одной транзакции. Guard-чтения внутри fn берут
// блокировки строк (FOR UPDATE), поэтому хватает READ COMMITTED.
// Коммит только если fn вернула nil, иначе откат.
func (s *PgStore) InTx(ctx context.Context, fn func(tx Repos) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newPgRepos(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
