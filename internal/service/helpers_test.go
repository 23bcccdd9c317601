package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/audit"
	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/notify"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository/memory"
)

const (
	adminID    int64 = 1
	studentID  int64 = 2
	tutorID    int64 = 42
	otherTutor int64 = 43
	idleTutor  int64 = 44
	courseID   int64 = 7
)

var (
	admin   = model.Caller{ID: adminID, Roles: []string{"admin"}}
	student = model.Caller{ID: studentID, Roles: []string{"student"}}
	tutor   = model.Caller{ID: tutorID, Roles: []string{"student"}}
	other   = model.Caller{ID: otherTutor, Roles: []string{"student"}}
)

// Wednesday; the quota week is Sun 2025-03-09 .. Sun 2025-03-16 UTC.
var clock = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Kind
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	requests *RequestService
	sessions *SessionService
	notes    *recordingNotifier
}

func newFixture(t *testing.T, opts SessionOptions) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.AddUser(model.User{ID: adminID, Role: model.RoleAdmin, FirstName: "Sarah"})
	store.AddUser(model.User{ID: studentID, Role: model.RoleStudent, FirstName: "Michael"})
	store.AddUser(model.User{ID: tutorID, Role: model.RoleStudent, FirstName: "John"})
	store.AddUser(model.User{ID: otherTutor, Role: model.RoleStudent, FirstName: "Emily"})
	store.AddUser(model.User{ID: idleTutor, Role: model.RoleStudent, FirstName: "Jessica"})
	store.AddTutor(model.Tutor{UserID: tutorID, HourlyLimit: 10, Active: true})
	store.AddTutor(model.Tutor{UserID: otherTutor, HourlyLimit: 10, Active: true})
	store.AddTutor(model.Tutor{UserID: idleTutor, HourlyLimit: 10, Active: false})
	store.AddCourse(model.Course{ID: courseID, Code: "CS101", Title: "Introduction to Computer Science"})

	if opts.Now == nil {
		opts.Now = func() time.Time { return clock }
	}

	notes := &recordingNotifier{}
	logger := zap.NewNop()
	auditLog := audit.New(logger, audit.WithClock(func() time.Time { return clock }))

	return &fixture{
		store:    store,
		requests: NewRequestService(store, notes, auditLog, logger),
		sessions: NewSessionService(store, NewQuotaLedger(time.UTC), notes, auditLog, logger, opts),
		notes:    notes,
	}
}

// newRequest creates a pending request of the fixture student.
func (f *fixture) newRequest(t *testing.T) *model.TutoringRequest {
	t.Helper()
	req, err := f.requests.Create(context.Background(), student, CreateRequestInput{CourseID: courseID})
	require.NoError(t, err)
	return req
}

// assignedRequest creates a request already sitting with tutorID.
func (f *fixture) assignedRequest(t *testing.T) *model.TutoringRequest {
	t.Helper()
	req := f.newRequest(t)
	req, err := f.requests.Assign(context.Background(), admin, req.ID, tutorID)
	require.NoError(t, err)
	return req
}

// book stores a session directly, bypassing the quota.
func (f *fixture) book(t *testing.T, requestID, tutor int64, start time.Time, d time.Duration, status model.SessionStatus) *model.TutoringSession {
	t.Helper()
	s := &model.TutoringSession{
		RequestID: requestID,
		TutorID:   tutor,
		StudentID: studentID,
		CourseID:  courseID,
		StartTime: start,
		EndTime:   start.Add(d),
		Status:    status,
	}
	err := f.store.InTx(context.Background(), func(tx repository.Repos) error {
		return tx.Sessions().Create(context.Background(), s)
	})
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T { return &v }
