package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrQuotaExceeded     = errors.New("weekly quota exceeded")
)

// QuotaExceededError carries the numbers behind a rejected booking.
type QuotaExceededError struct {
	HoursUsed       float64
	AttemptingToAdd float64
	WeeklyLimit     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %.2f hours used, attempting to add %.2f, weekly limit %d",
		ErrQuotaExceeded, e.HoursUsed, e.AttemptingToAdd, e.WeeklyLimit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
