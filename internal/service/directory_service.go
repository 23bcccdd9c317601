package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
)

// DirectoryService только читает курсы, туторов и пользователей.
type DirectoryService struct {
	store repository.Store
}

func NewDirectoryService(store repository.Store) *DirectoryService {
	return &DirectoryService{store: store}
}

// AssignableTutors возвращает активных туторов для назначения.
func (s *DirectoryService) AssignableTutors(ctx context.Context) ([]*model.Tutor, error) {
	tutors, err := s.store.Tutors().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tutors: %w", err)
	}
	return tutors, nil
}

func (s *DirectoryService) Courses(ctx context.Context) ([]*model.Course, error) {
	courses, err := s.store.Courses().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// CallerByTelegramID находит пользователя по привязанному Telegram.
// Активный тутор получает роль tutor в дополнение к своей.
func (s *DirectoryService) CallerByTelegramID(ctx context.Context, telegramID int64) (*model.Caller, error) {
	user, err := s.store.Users().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		return nil, notFoundf("telegram account %d is not linked", telegramID)
	}

	caller := &model.Caller{ID: user.ID, Roles: []string{string(user.Role)}}

	tutor, err := s.store.Tutors().GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("get tutor: %w", err)
	}
	if tutor != nil && tutor.Active {
		caller.Roles = append(caller.Roles, string(model.RoleTutor))
	}
	return caller, nil
}
