package model

import "time"

// Tutor запись справочника о пользователе, которого можно назначать на заявки.
type Tutor struct {
	UserID      int64     `json:"user_id"`
	Subjects    []string  `json:"subjects"`
	HourlyLimit int       `json:"hourly_limit"` // часов в неделю
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`

	User *User `json:"user,omitempty"`
}

// WeeklyLimit лимит часов в виде time.Duration.
func (t *Tutor) WeeklyLimit() time.Duration {
	return time.Duration(t.HourlyLimit) * time.Hour
}

type Course struct {
	ID         int64  `json:"id"`
	Code       string `json:"code"`
	Title      string `json:"title"`
	Department string `json:"department"`
}
