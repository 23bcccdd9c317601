package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	// RoleTutor выводится из активной записи Tutor, в users не хранится.
	RoleTutor Role = "tutor"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	TelegramID *int64    `json:"telegram_id,omitempty"` // nil = бот не привязан
	CreatedAt  time.Time `json:"created_at"`
}

// Caller аутентифицированный пользователь, выполняющий операцию.
type Caller struct {
	ID    int64
	Roles []string
}

// IsAdmin: есть ли у вызывающего роль admin.
func (c Caller) IsAdmin() bool {
	return c.HasRole(string(RoleAdmin))
}

// HasRole ждёт роли, уже приведённые к нижнему регистру в auth.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
