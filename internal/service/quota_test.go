package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

func TestQuotaWindow(t *testing.T) {
	ledger := NewQuotaLedger(time.UTC)

	tests := []struct {
		name string
		asOf time.Time
		want time.Time
	}{
		{"midweek", time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"sunday midnight", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"saturday night", time.Date(2025, 3, 15, 23, 59, 59, 0, time.UTC), time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"across month", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), time.Date(2025, 2, 23, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ledger.Window(tt.asOf)
			assert.True(t, tt.want.Equal(start), "start %s", start)
			assert.True(t, tt.want.AddDate(0, 0, 7).Equal(end), "end %s", end)
		})
	}
}

func TestQuotaWindowUsesLocation(t *testing.T) {
	central := time.FixedZone("CST", -6*60*60)
	ledger := NewQuotaLedger(central)

	// Sunday 03:00 UTC is still Saturday evening in CST.
	start, _ := ledger.Window(time.Date(2025, 3, 9, 3, 0, 0, 0, time.UTC))
	assert.True(t, time.Date(2025, 3, 2, 0, 0, 0, 0, central).Equal(start), "start %s", start)
}

func TestQuotaUsedCountsOnlyCommittedSessionsInWindow(t *testing.T) {
	f := newFixture(t, SessionOptions{})
	req := f.assignedRequest(t)
	monday := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	f.book(t, req.ID, tutorID, monday, 2*time.Hour, model.SessionStatusScheduled)
	f.book(t, req.ID, tutorID, monday.Add(24*time.Hour), 90*time.Minute, model.SessionStatusCompleted)
	f.book(t, req.ID, tutorID, monday.Add(48*time.Hour), 5*time.Hour, model.SessionStatusCancelled)
	f.book(t, req.ID, tutorID, monday.AddDate(0, 0, 7), 5*time.Hour, model.SessionStatusScheduled)
	f.book(t, req.ID, otherTutor, monday, 5*time.Hour, model.SessionStatusScheduled)

	ledger := NewQuotaLedger(time.UTC)
	used, err := ledger.Used(context.Background(), f.store.Sessions(), tutorID, clock, 0)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour+30*time.Minute, used)
}

func TestQuotaCheckBoundary(t *testing.T) {
	f := newFixture(t, SessionOptions{})
	req := f.assignedRequest(t)
	monday := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.book(t, req.ID, tutorID, monday, 8*time.Hour, model.SessionStatusScheduled)

	ledger := NewQuotaLedger(time.UTC)
	tut := &model.Tutor{UserID: tutorID, HourlyLimit: 10}

	// ровно до лимита можно
	require.NoError(t, ledger.Check(context.Background(), f.store.Sessions(), tut, clock, 2*time.Hour, 0))

	err := ledger.Check(context.Background(), f.store.Sessions(), tut, clock, 2*time.Hour+time.Minute, 0)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	var quotaErr *QuotaExceededError
	require.True(t, errors.As(err, &quotaErr))
	assert.Equal(t, 8.0, quotaErr.HoursUsed)
	assert.Equal(t, 10, quotaErr.WeeklyLimit)
}
