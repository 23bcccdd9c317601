package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

type statement struct {
	sql  string
	args []any
}

// fakeRow отдаёт заранее заданный результат Scan.
type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// fakeConn записывает выполненные запросы. Пустой row означает ErrNoRows.
type fakeConn struct {
	stmts    []statement
	row      func(dest ...any) error
	affected string
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.stmts = append(c.stmts, statement{sql, args})
	tag := c.affected
	if tag == "" {
		tag = "UPDATE 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.stmts = append(c.stmts, statement{sql, args})
	return nil, errors.New("query not supported by fake")
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	c.stmts = append(c.stmts, statement{sql, args})
	if c.row == nil {
		return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
	}
	return fakeRow{scan: c.row}
}

func (c *fakeConn) last() statement {
	return c.stmts[len(c.stmts)-1]
}

// fakeTx реализует только то, что использует PgStore.
type fakeTx struct {
	pgx.Tx
	*fakeConn
	commitErr  error
	committed  int
	rolledBack int
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed++
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed > 0 {
		return pgx.ErrTxClosed
	}
	t.rolledBack++
	return nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.fakeConn.Exec(ctx, sql, args...)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.fakeConn.Query(ctx, sql, args...)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.fakeConn.QueryRow(ctx, sql, args...)
}

type fakePool struct {
	fakeConn
	tx       *fakeTx
	opts     *pgx.TxOptions
	beginErr error
}

func newFakePool() *fakePool {
	return &fakePool{tx: &fakeTx{fakeConn: &fakeConn{}}}
}

func (p *fakePool) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	p.opts = &opts
	return p.tx, nil
}

func scanTutor(dest ...any) error {
	*dest[0].(*int64) = 42
	*dest[1].(*[]string) = []string{"math"}
	*dest[2].(*int) = 10
	*dest[3].(*bool) = true
	*dest[4].(*time.Time) = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return nil
}

func TestPgStoreInTxCommits(t *testing.T) {
	ctx := context.Background()
	pool := newFakePool()
	pool.tx.row = scanTutor
	store := newPgStore(pool)

	err := store.InTx(ctx, func(tx Repos) error {
		tutor, err := tx.Tutors().GetByIDForUpdate(ctx, 42)
		require.NoError(t, err)
		require.NotNil(t, tutor)
		assert.Equal(t, 10, tutor.HourlyLimit)
		return nil
	})
	require.NoError(t, err)

	require.NotNil(t, pool.opts)
	assert.Equal(t, pgx.ReadCommitted, pool.opts.IsoLevel)
	assert.Equal(t, 1, pool.tx.committed)
	assert.Zero(t, pool.tx.rolledBack)

	// запросы внутри fn идут через транзакцию, а не через пул
	assert.Empty(t, pool.stmts)
	require.Len(t, pool.tx.stmts, 1)
	assert.True(t, strings.HasSuffix(pool.tx.last().sql, "FOR UPDATE"))
}

func TestPgStoreInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	pool := newFakePool()
	store := newPgStore(pool)
	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx Repos) error {
		req, err := tx.Requests().GetByIDForUpdate(ctx, 5)
		require.NoError(t, err)
		assert.Nil(t, req)
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Zero(t, pool.tx.committed)
	assert.Equal(t, 1, pool.tx.rolledBack)
}

func TestPgStoreInTxBeginAndCommitErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("begin", func(t *testing.T) {
		pool := newFakePool()
		pool.beginErr = errors.New("no connection")
		called := false

		err := newPgStore(pool).InTx(ctx, func(Repos) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, pool.beginErr)
		assert.Contains(t, err.Error(), "begin transaction")
		assert.False(t, called)
	})

	t.Run("commit", func(t *testing.T) {
		pool := newFakePool()
		pool.tx.commitErr = errors.New("serialization failure")

		err := newPgStore(pool).InTx(ctx, func(Repos) error { return nil })
		require.ErrorIs(t, err, pool.tx.commitErr)
		assert.Contains(t, err.Error(), "commit transaction")
	})
}

func TestRowLockQueries(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{}
	repos := newPgRepos(conn)

	tests := []struct {
		name   string
		get    func() (any, error)
		locked bool
	}{
		{"request", func() (any, error) { return repos.Requests().GetByID(ctx, 7) }, false},
		{"request for update", func() (any, error) { return repos.Requests().GetByIDForUpdate(ctx, 7) }, true},
		{"session", func() (any, error) { return repos.Sessions().GetByID(ctx, 7) }, false},
		{"session for update", func() (any, error) { return repos.Sessions().GetByIDForUpdate(ctx, 7) }, true},
		{"tutor", func() (any, error) { return repos.Tutors().GetByID(ctx, 7) }, false},
		{"tutor for update", func() (any, error) { return repos.Tutors().GetByIDForUpdate(ctx, 7) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.get()
			require.NoError(t, err)
			assert.Nil(t, got)

			stmt := conn.last()
			assert.Equal(t, tt.locked, strings.HasSuffix(stmt.sql, "FOR UPDATE"), stmt.sql)
			assert.Equal(t, []any{int64(7)}, stmt.args)
		})
	}
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{affected: "UPDATE 0"}
	repos := newPgRepos(conn)

	err := repos.Requests().Update(ctx, &model.TutoringRequest{ID: 3, Status: model.RequestStatusPending})
	assert.ErrorIs(t, err, ErrNotFound)

	err = repos.Sessions().Update(ctx, &model.TutoringSession{ID: 3, Status: model.SessionStatusScheduled})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildRequestWhere(t *testing.T) {
	pending := model.RequestStatusPending
	id := func(v int64) *int64 { return &v }

	tests := []struct {
		name   string
		filter model.RequestFilter
		where  string
		args   []any
	}{
		{"empty", model.RequestFilter{}, "", nil},
		{"status", model.RequestFilter{Status: &pending}, " WHERE status = $1", []any{"pending"}},
		{
			"visibility reuses one placeholder",
			model.RequestFilter{VisibleTo: id(9)},
			" WHERE (student_id = $1 OR requested_tutor_id = $1)",
			[]any{int64(9)},
		},
		{
			"all",
			model.RequestFilter{Status: &pending, StudentID: id(2), RequestedTutorID: id(42), CourseID: id(7), VisibleTo: id(2)},
			" WHERE status = $1 AND student_id = $2 AND requested_tutor_id = $3 AND course_id = $4 AND (student_id = $5 OR requested_tutor_id = $5)",
			[]any{"pending", int64(2), int64(42), int64(7), int64(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildRequestWhere(tt.filter)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildSessionWhere(t *testing.T) {
	id := func(v int64) *int64 { return &v }

	tests := []struct {
		name   string
		filter model.SessionFilter
		where  string
		args   []any
	}{
		{"empty", model.SessionFilter{}, "", nil},
		{"tutor", model.SessionFilter{TutorID: id(42)}, " WHERE tutor_id = $1", []any{int64(42)}},
		{
			"participant after request",
			model.SessionFilter{RequestID: id(3), Participant: id(2)},
			" WHERE request_id = $1 AND (tutor_id = $2 OR student_id = $2)",
			[]any{int64(3), int64(2)},
		},
		{
			"all",
			model.SessionFilter{TutorID: id(42), StudentID: id(2), RequestID: id(3), Participant: id(42)},
			" WHERE tutor_id = $1 AND student_id = $2 AND request_id = $3 AND (tutor_id = $4 OR student_id = $4)",
			[]any{int64(42), int64(2), int64(3), int64(42)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildSessionWhere(tt.filter)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}
