package bot

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/audit"
	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/notify"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository/memory"
	"github.com/Freeeeeet/tutoring_toolbox/internal/service"
)

const (
	adminID   int64 = 1
	studentID int64 = 2
	tutorID   int64 = 42

	studentTG int64 = 9002
	tutorTG   int64 = 9042
)

var clock = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type harness struct {
	ctl      *Controller
	requests *service.RequestService
	sessions *service.SessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	store.SetClock(func() time.Time { return clock })
	stg, ttg := studentTG, tutorTG
	store.AddUser(model.User{ID: adminID, Role: model.RoleAdmin})
	store.AddUser(model.User{ID: studentID, Role: model.RoleStudent, TelegramID: &stg})
	store.AddUser(model.User{ID: tutorID, Role: model.RoleStudent, TelegramID: &ttg})
	store.AddTutor(model.Tutor{UserID: tutorID, HourlyLimit: 10, Active: true})
	store.AddCourse(model.Course{ID: 7, Code: "CS101"})

	logger := zap.NewNop()
	notifier := notify.NewLogNotifier(logger)
	auditLog := audit.New(logger, audit.WithClock(func() time.Time { return clock }))

	requests := service.NewRequestService(store, notifier, auditLog, logger)
	sessions := service.NewSessionService(store, service.NewQuotaLedger(time.UTC), notifier, auditLog, logger,
		service.SessionOptions{Now: func() time.Time { return clock }})
	directory := service.NewDirectoryService(store)

	ctl := NewController(nil, requests, sessions, directory, time.UTC, logger)
	ctl.now = func() time.Time { return clock }

	return &harness{
		ctl:      ctl,
		requests: requests,
		sessions: sessions,
	}
}

// assigned creates a request by the student and hands it to the tutor.
func (h *harness) assigned(t *testing.T) *model.TutoringRequest {
	t.Helper()
	ctx := context.Background()
	admin := model.Caller{ID: adminID, Roles: []string{"admin"}}

	desc := "graphs"
	req, err := h.requests.Create(ctx, model.Caller{ID: studentID, Roles: []string{"student"}},
		service.CreateRequestInput{CourseID: 7, Description: &desc})
	require.NoError(t, err)
	req, err = h.requests.Assign(ctx, admin, req.ID, tutorID)
	require.NoError(t, err)
	return req
}

func TestUnlinkedAccount(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, notLinkedText, h.ctl.HandleCommand(context.Background(), 12345, "/start").Text)
}

func TestStartShowsRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Contains(t, h.ctl.HandleCommand(ctx, tutorTG, "/start").Text, "(tutor)")
	assert.Contains(t, h.ctl.HandleCommand(ctx, studentTG, "/start").Text, "(student)")
}

func TestPendingAndAccept(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assigned(t)

	pending := h.ctl.HandleCommand(ctx, tutorTG, "/pending")
	assert.Contains(t, pending.Text, "graphs")
	require.NotNil(t, pending.Keyboard)
	require.Len(t, pending.Keyboard.InlineKeyboard, 1)
	assert.Equal(t, "req_accept:"+itoa(req.ID), pending.Keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "req_decline:"+itoa(req.ID), pending.Keyboard.InlineKeyboard[0][1].CallbackData)

	assert.Equal(t, "❌ This command is for tutors.", h.ctl.HandleCommand(ctx, studentTG, "/pending").Text)

	out := h.ctl.HandleCommand(ctx, tutorTG, "/accept "+itoa(req.ID)).Text
	assert.Contains(t, out, "accepted")

	out = h.ctl.HandleCommand(ctx, tutorTG, "/accept "+itoa(req.ID)).Text
	assert.Contains(t, out, "not allowed")

	assert.Contains(t, h.ctl.HandleCommand(ctx, tutorTG, "/pending").Text, "Nothing is waiting")
	assert.Contains(t, h.ctl.HandleCommand(ctx, studentTG, "/requests").Text, "approved")
}

func TestDeclineReturnsRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assigned(t)

	out := h.ctl.HandleCommand(ctx, tutorTG, "/decline@tutoring_bot "+itoa(req.ID)).Text
	assert.Contains(t, out, "declined")

	got, err := h.requests.Get(ctx, model.Caller{ID: adminID, Roles: []string{"admin"}}, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, got.Status)
}

func TestRespondUsage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Equal(t, "Usage: /accept <request id>", h.ctl.HandleCommand(ctx, tutorTG, "/accept").Text)
	assert.Contains(t, h.ctl.HandleCommand(ctx, tutorTG, "/decline abc").Text, "is not a request id")
	assert.Equal(t, "❌ Not found.", h.ctl.HandleCommand(ctx, tutorTG, "/accept 999").Text)
}

func TestSessionsAndQuota(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assigned(t)

	assert.Equal(t, "📅 No upcoming sessions.", h.ctl.HandleCommand(ctx, studentTG, "/sessions").Text)

	start := time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC)
	_, err := h.sessions.CreateSession(ctx, model.Caller{ID: tutorID}, req.ID, start, start.Add(90*time.Minute))
	require.NoError(t, err)

	assert.Contains(t, h.ctl.HandleCommand(ctx, studentTG, "/sessions").Text, "Thu 13.03 09:00 - 10:30 (you are the student)")
	assert.Contains(t, h.ctl.HandleCommand(ctx, tutorTG, "/sessions").Text, "(you are the tutor)")

	past := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	_, err = h.sessions.CreateSession(ctx, model.Caller{ID: tutorID}, req.ID, past, past.Add(time.Hour))
	require.NoError(t, err)
	assert.NotContains(t, h.ctl.HandleCommand(ctx, studentTG, "/sessions").Text, "Tue 11.03")

	assert.Equal(t, "⏱ Week of 09.03.2025: 2.5 of 10 hours booked, 7.5 left.", h.ctl.HandleCommand(ctx, tutorTG, "/quota").Text)
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.ctl.HandleCommand(context.Background(), studentTG, "/dance").Text, "Unknown command")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestCallbackDecline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	req := h.assigned(t)

	assert.Contains(t, h.ctl.HandleCallback(ctx, tutorTG, "req_decline:"+itoa(req.ID)), "declined")
	assert.Contains(t, h.ctl.HandleCallback(ctx, tutorTG, "req_accept:"+itoa(req.ID)), "not allowed")
	assert.Equal(t, "🤔 Unknown action.", h.ctl.HandleCallback(ctx, tutorTG, "req_accept:x"))
	assert.Equal(t, "🤔 Unknown action.", h.ctl.HandleCallback(ctx, tutorTG, "book_lesson:1"))
	assert.Equal(t, notLinkedText, h.ctl.HandleCallback(ctx, 1, "req_accept:"+itoa(req.ID)))
}

func TestFormatRequestShowsDenyReason(t *testing.T) {
	reason := "no tutors this term"
	out := formatRequest(&model.TutoringRequest{ID: 3, CourseID: 7, Status: model.RequestStatusDenied, DeclineReason: &reason})
	assert.Equal(t, "🚫 #3 course 7, denied (no tutors this term)", out)
}
