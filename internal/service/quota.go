package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
)

// QuotaLedger computes a tutor's committed hours in the quota week.
// The week starts on Sunday 00:00 in loc.
type QuotaLedger struct {
	loc *time.Location
}

func NewQuotaLedger(loc *time.Location) *QuotaLedger {
	if loc == nil {
		loc = time.UTC
	}
	return &QuotaLedger{loc: loc}
}

// Window returns [weekStart, weekEnd) containing asOf.
func (l *QuotaLedger) Window(asOf time.Time) (time.Time, time.Time) {
	local := asOf.In(l.loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, l.loc)
	start := midnight.AddDate(0, 0, -int(local.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// Used sums durations of quota-consuming sessions starting inside the window
// of asOf. excludeID skips one session (the one being rescheduled); pass 0 to
// count everything.
func (l *QuotaLedger) Used(ctx context.Context, sessions repository.SessionRepo, tutorID int64, asOf time.Time, excludeID int64) (time.Duration, error) {
	start, end := l.Window(asOf)

	list, err := sessions.ListByTutorBetween(ctx, tutorID, start, end)
	if err != nil {
		return 0, fmt.Errorf("list tutor sessions: %w", err)
	}

	var used time.Duration
	for _, s := range list {
		if s.ID == excludeID || !s.Status.CountsTowardQuota() {
			continue
		}
		used += s.Duration()
	}
	return used, nil
}

// Usage reports the tutor's week for display.
func (l *QuotaLedger) Usage(ctx context.Context, sessions repository.SessionRepo, tutor *model.Tutor, asOf time.Time) (*model.QuotaUsage, error) {
	used, err := l.Used(ctx, sessions, tutor.UserID, asOf, 0)
	if err != nil {
		return nil, err
	}
	start, end := l.Window(asOf)
	return &model.QuotaUsage{
		TutorID:     tutor.UserID,
		WeekStart:   start,
		WeekEnd:     end,
		HoursUsed:   used.Hours(),
		WeeklyLimit: tutor.HourlyLimit,
	}, nil
}

// Check admits add when used+add stays within the tutor's weekly limit.
// The caller must hold the tutor row lock for the decision to stick.
func (l *QuotaLedger) Check(ctx context.Context, sessions repository.SessionRepo, tutor *model.Tutor, asOf time.Time, add time.Duration, excludeID int64) error {
	used, err := l.Used(ctx, sessions, tutor.UserID, asOf, excludeID)
	if err != nil {
		return err
	}

	if used+add > tutor.WeeklyLimit() {
		return &QuotaExceededError{
			HoursUsed:       used.Hours(),
			AttemptingToAdd: add.Hours(),
			WeeklyLimit:     tutor.HourlyLimit,
		}
	}
	return nil
}
