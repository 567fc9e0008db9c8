package service

import (
	"context"
	"errors"

	"team-roster-service/internal/model"
	"team-roster-service/internal/repository"
)

// UserService возвращает данные текущего пользователя.
type UserService struct {
	people  PersonRepository
	members MemberRepository
}

// NewUserService создаёт новый сервис текущего пользователя.
func NewUserService(people PersonRepository, members MemberRepository) *UserService {
	return &UserService{people: people, members: members}
}

// Me возвращает профиль пользователя и его членства в коллективах.
func (s *UserService) Me(ctx context.Context, userID string) (model.CurrentUser, error) {
	if userID == "" {
		return model.CurrentUser{}, ErrUnauthorized("authentication required")
	}
	person, err := s.people.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrPersonNotFound) {
			return model.CurrentUser{}, ErrNotFound("user not found")
		}
		return model.CurrentUser{}, ErrInternal("failed to get user", err)
	}
	memberships, err := s.members.ListByPerson(ctx, userID)
	if err != nil {
		return model.CurrentUser{}, ErrInternal("failed to list memberships", err)
	}
	return model.CurrentUser{Person: person, Memberships: memberships}, nil
}
