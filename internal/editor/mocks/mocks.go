// Package mocks содержит testify-моки коллабораторов редактора состава.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"team-roster-service/internal/editor"
	"team-roster-service/internal/model"
)

// MembershipService мокирует editor.MembershipService.
type MembershipService struct {
	mock.Mock
}

func (m *MembershipService) FetchRoster(ctx context.Context, collectiveID string) (model.RosterSnapshot, error) {
	args := m.Called(ctx, collectiveID)
	return args.Get(0).(model.RosterSnapshot), args.Error(1)
}

func (m *MembershipService) UpdateRoster(ctx context.Context, collectiveID string, entries []model.UpdateEntry) (model.RosterSnapshot, error) {
	args := m.Called(ctx, collectiveID, entries)
	return args.Get(0).(model.RosterSnapshot), args.Error(1)
}

// UserRefresher мокирует editor.UserRefresher.
type UserRefresher struct {
	mock.Mock
}

func (m *UserRefresher) RefreshCurrentUser(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Confirmer мокирует editor.Confirmer.
type Confirmer struct {
	mock.Mock
}

func (m *Confirmer) Confirm(ctx context.Context, entry model.MemberEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

var (
	_ editor.MembershipService = (*MembershipService)(nil)
	_ editor.UserRefresher     = (*UserRefresher)(nil)
	_ editor.Confirmer         = (*Confirmer)(nil)
)
