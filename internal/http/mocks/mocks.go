// Package mocks содержит testify-моки сервисов для тестов HTTP-слоя.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	httpapi "team-roster-service/internal/http"
	"team-roster-service/internal/model"
)

var (
	_ httpapi.RosterService = (*RosterService)(nil)
	_ httpapi.PersonService = (*PersonService)(nil)
	_ httpapi.UserService   = (*UserService)(nil)
	_ httpapi.TokenVerifier = (*TokenVerifier)(nil)
)

type RosterService struct {
	mock.Mock
}

func (m *RosterService) FetchRoster(ctx context.Context, actorID, collectiveID string) (model.RosterSnapshot, error) {
	args := m.Called(ctx, actorID, collectiveID)
	return args.Get(0).(model.RosterSnapshot), args.Error(1)
}

func (m *RosterService) UpdateRoster(ctx context.Context, actorID, collectiveID string, entries []model.UpdateEntry) (model.RosterSnapshot, error) {
	args := m.Called(ctx, actorID, collectiveID, entries)
	return args.Get(0).(model.RosterSnapshot), args.Error(1)
}

type PersonService struct {
	mock.Mock
}

func (m *PersonService) Search(ctx context.Context, actorID, query, personType string, exclude []string) ([]model.Person, error) {
	args := m.Called(ctx, actorID, query, personType, exclude)
	var res []model.Person
	if v := args.Get(0); v != nil {
		res = v.([]model.Person)
	}
	return res, args.Error(1)
}

type UserService struct {
	mock.Mock
}

func (m *UserService) Me(ctx context.Context, userID string) (model.CurrentUser, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.CurrentUser), args.Error(1)
}

type TokenVerifier struct {
	mock.Mock
}

func (m *TokenVerifier) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
