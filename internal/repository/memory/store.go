// Package memory is an in-process implementation of repository.Store.
// Transactions are serialized with a single lock and applied to a working
// copy that replaces the committed state only when fn succeeds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
)

type state struct {
	users    map[int64]*model.User
	tutors   map[int64]*model.Tutor
	courses  map[int64]*model.Course
	requests map[int64]*model.TutoringRequest
	sessions map[int64]*model.TutoringSession

	nextRequestID int64
	nextSessionID int64
}

func newState() *state {
	return &state{
		users:    make(map[int64]*model.User),
		tutors:   make(map[int64]*model.Tutor),
		courses:  make(map[int64]*model.Course),
		requests: make(map[int64]*model.TutoringRequest),
		sessions: make(map[int64]*model.TutoringSession),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range s.tutors {
		c.tutors[k] = copyTutor(v)
	}
	for k, v := range s.courses {
		cp := *v
		c.courses[k] = &cp
	}
	for k, v := range s.requests {
		c.requests[k] = copyRequest(v)
	}
	for k, v := range s.sessions {
		c.sessions[k] = copySession(v)
	}
	c.nextRequestID = s.nextRequestID
	c.nextSessionID = s.nextSessionID
	return c
}

// Store is safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the clock used for created_at/updated_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&view{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Outside a transaction every call is its own short transaction.
func (s *Store) Requests() repository.RequestRepo { return &requestRepo{s: s} }
func (s *Store) Sessions() repository.SessionRepo { return &sessionRepo{s: s} }
func (s *Store) Tutors() repository.TutorRepo     { return &tutorRepo{s: s} }
func (s *Store) Courses() repository.CourseRepo   { return &courseRepo{s: s} }
func (s *Store) Users() repository.UserRepo       { return &userRepo{s: s} }

func (s *Store) read(fn func(v *view)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&view{st: s.st, now: s.now})
}

func (s *Store) write(fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&view{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddUser seeds a user.
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.st.users[u.ID] = copyUser(&u)
}

// AddTutor seeds a tutor record for an existing or future user.
func (s *Store) AddTutor(t model.Tutor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	t.User = nil
	s.st.tutors[t.UserID] = copyTutor(&t)
}

// AddCourse seeds a course.
func (s *Store) AddCourse(c model.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.courses[c.ID] = &c
}

// view implements repository.Repos over one state snapshot. Callers hold the lock.
type view struct {
	st  *state
	now func() time.Time
}

func (v *view) Requests() repository.RequestRepo { return (*txRequests)(v) }
func (v *view) Sessions() repository.SessionRepo { return (*txSessions)(v) }
func (v *view) Tutors() repository.TutorRepo     { return (*txTutors)(v) }
func (v *view) Courses() repository.CourseRepo   { return (*txCourses)(v) }
func (v *view) Users() repository.UserRepo       { return (*txUsers)(v) }

// ---- requests ----

type txRequests view

func (r *txRequests) Create(_ context.Context, req *model.TutoringRequest) error {
	r.st.nextRequestID++
	now := r.now()
	req.ID = r.st.nextRequestID
	req.CreatedAt = now
	req.UpdatedAt = now
	r.st.requests[req.ID] = copyRequest(req)
	return nil
}

func (r *txRequests) GetByID(_ context.Context, id int64) (*model.TutoringRequest, error) {
	req, ok := r.st.requests[id]
	if !ok {
		return nil, nil
	}
	return copyRequest(req), nil
}

func (r *txRequests) GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *txRequests) List(_ context.Context, filter model.RequestFilter) ([]*model.TutoringRequest, error) {
	var out []*model.TutoringRequest
	for _, req := range r.st.requests {
		if filter.Matches(req) {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *txRequests) Update(_ context.Context, req *model.TutoringRequest) error {
	if _, ok := r.st.requests[req.ID]; !ok {
		return repository.ErrNotFound
	}
	req.UpdatedAt = r.now()
	r.st.requests[req.ID] = copyRequest(req)
	return nil
}

func (r *txRequests) Delete(_ context.Context, id int64) error {
	if _, ok := r.st.requests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.requests, id)
	return nil
}

// ---- sessions ----

type txSessions view

func (r *txSessions) Create(_ context.Context, session *model.TutoringSession) error {
	r.st.nextSessionID++
	now := r.now()
	session.ID = r.st.nextSessionID
	session.CreatedAt = now
	session.UpdatedAt = now
	r.st.sessions[session.ID] = copySession(session)
	return nil
}

func (r *txSessions) GetByID(_ context.Context, id int64) (*model.TutoringSession, error) {
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (r *txSessions) GetByIDForUpdate(ctx context.Context, id int64) (*model.TutoringSession, error) {
	return r.GetByID(ctx, id)
}

func (r *txSessions) List(_ context.Context, filter model.SessionFilter) ([]*model.TutoringSession, error) {
	var out []*model.TutoringSession
	for _, s := range r.st.sessions {
		if filter.Matches(s) {
			out = append(out, copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *txSessions) ListByTutorBetween(_ context.Context, tutorID int64, from, to time.Time) ([]*model.TutoringSession, error) {
	var out []*model.TutoringSession
	for _, s := range r.st.sessions {
		if s.TutorID != tutorID || s.StartTime.Before(from) || !s.StartTime.Before(to) {
			continue
		}
		out = append(out, copySession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *txSessions) CountByRequest(_ context.Context, requestID int64) (int, error) {
	count := 0
	for _, s := range r.st.sessions {
		if s.RequestID == requestID {
			count++
		}
	}
	return count, nil
}

func (r *txSessions) Update(_ context.Context, session *model.TutoringSession) error {
	if _, ok := r.st.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	session.UpdatedAt = r.now()
	r.st.sessions[session.ID] = copySession(session)
	return nil
}

// ---- directory ----

type txTutors view

func (r *txTutors) GetByID(_ context.Context, userID int64) (*model.Tutor, error) {
	t, ok := r.st.tutors[userID]
	if !ok {
		return nil, nil
	}
	return copyTutor(t), nil
}

func (r *txTutors) GetByIDForUpdate(ctx context.Context, userID int64) (*model.Tutor, error) {
	return r.GetByID(ctx, userID)
}

func (r *txTutors) ListActive(_ context.Context) ([]*model.Tutor, error) {
	var out []*model.Tutor
	for _, t := range r.st.tutors {
		if !t.Active {
			continue
		}
		cp := copyTutor(t)
		if u, ok := r.st.users[t.UserID]; ok {
			cp.User = copyUser(u)
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type txCourses view

func (r *txCourses) GetByID(_ context.Context, id int64) (*model.Course, error) {
	c, ok := r.st.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *txCourses) List(_ context.Context) ([]*model.Course, error) {
	var out []*model.Course
	for _, c := range r.st.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type txUsers view

func (r *txUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *txUsers) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range r.st.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// ---- copies ----

func copyRequest(r *model.TutoringRequest) *model.TutoringRequest {
	cp := *r
	cp.Description = copyPtr(r.Description)
	cp.RequestedTutorID = copyPtr(r.RequestedTutorID)
	cp.DeclineReason = copyPtr(r.DeclineReason)
	return &cp
}

func copySession(s *model.TutoringSession) *model.TutoringSession {
	cp := *s
	cp.Attended = copyPtr(s.Attended)
	cp.Notes = copyPtr(s.Notes)
	return &cp
}

func copyTutor(t *model.Tutor) *model.Tutor {
	cp := *t
	cp.Subjects = append([]string(nil), t.Subjects...)
	if t.User != nil {
		cp.User = copyUser(t.User)
	}
	return &cp
}

func copyUser(u *model.User) *model.User {
	cp := *u
	cp.TelegramID = copyPtr(u.TelegramID)
	return &cp
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
