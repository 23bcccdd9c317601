package model

import "time"

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled" // запланировано
	SessionStatusCompleted SessionStatus = "completed" // проведено
	SessionStatusCancelled SessionStatus = "cancelled" // зарезервировано, переходов пока нет
)

// CountsTowardQuota: занимает ли занятие часы недельной квоты тутора.
func (s SessionStatus) CountsTowardQuota() bool {
	return s == SessionStatusScheduled || s == SessionStatusCompleted
}

// CanTransitionTo машина состояний занятия.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionStatusScheduled:
		switch next {
		case SessionStatusCompleted:
			return true
		case SessionStatusCancelled:
			// TODO: перед включением отмены решить, кто может отменять и
			// возвращаются ли часы в недельную квоту.
			return false
		}
	case SessionStatusCompleted, SessionStatusCancelled:
	}
	return false
}

// TutoringSession конкретное занятие по заявке с началом и концом.
type TutoringSession struct {
	ID        int64         `json:"id"`
	RequestID int64         `json:"request_id"`
	TutorID   int64         `json:"tutor_id"`
	StudentID int64         `json:"student_id"`
	CourseID  int64         `json:"course_id"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Status    SessionStatus `json:"status"`
	Attended  *bool         `json:"attended"`
	Notes     *string       `json:"notes"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Duration длительность занятия.
func (s *TutoringSession) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// HasParticipant: пользователь тутор или студент занятия.
func (s *TutoringSession) HasParticipant(userID int64) bool {
	return s.TutorID == userID || s.StudentID == userID
}

// SessionFilter фильтр списка занятий. nil поля игнорируются.
type SessionFilter struct {
	TutorID   *int64
	StudentID *int64
	RequestID *int64
	// Participant оставляет занятия, где пользователь тутор или студент.
	Participant *int64
}

// Matches применяет фильтр в памяти.
func (f SessionFilter) Matches(s *TutoringSession) bool {
	if f.TutorID != nil && s.TutorID != *f.TutorID {
		return false
	}
	if f.StudentID != nil && s.StudentID != *f.StudentID {
		return false
	}
	if f.RequestID != nil && s.RequestID != *f.RequestID {
		return false
	}
	if f.Participant != nil && !s.HasParticipant(*f.Participant) {
		return false
	}
	return true
}

// QuotaUsage занятые часы тутора в одном недельном окне.
type QuotaUsage struct {
	TutorID     int64     `json:"tutor_id"`
	WeekStart   time.Time `json:"week_start"`
	WeekEnd     time.Time `json:"week_end"`
	HoursUsed   float64   `json:"hours_used"`
	WeeklyLimit int       `json:"weekly_limit"`
}

// Remaining оставшиеся часы в окне, не меньше нуля.
func (q *QuotaUsage) Remaining() float64 {
	left := float64(q.WeeklyLimit) - q.HoursUsed
	if left < 0 {
		return 0
	}
	return left
}
