// Package mocks содержит testify-моки репозиториев для тестов бизнес-слоя.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"team-roster-service/internal/model"
	"team-roster-service/internal/service"
)

var (
	_ service.CollectiveRepository = (*CollectiveRepository)(nil)
	_ service.MemberRepository     = (*MemberRepository)(nil)
	_ service.InvitationRepository = (*InvitationRepository)(nil)
	_ service.PersonRepository     = (*PersonRepository)(nil)
	_ service.TransactionManager   = (*TransactionManager)(nil)
	_ service.SnapshotCache        = (*SnapshotCache)(nil)
)

// CollectiveRepository мокирует service.CollectiveRepository.
type CollectiveRepository struct {
	mock.Mock
}

func (m *CollectiveRepository) GetByID(ctx context.Context, id string) (model.Collective, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Collective), args.Error(1)
}

// MemberRepository мокирует service.MemberRepository.
type MemberRepository struct {
	mock.Mock
}

func (m *MemberRepository) ListByCollective(ctx context.Context, collectiveID string, roles []model.Role) ([]model.MemberEntry, error) {
	args := m.Called(ctx, collectiveID, roles)
	return entries(args.Get(0)), args.Error(1)
}

func (m *MemberRepository) Upsert(ctx context.Context, collectiveID string, e model.MemberEntry) (model.MemberEntry, error) {
	args := m.Called(ctx, collectiveID, e)
	if rf, ok := args.Get(0).(func(context.Context, string, model.MemberEntry) model.MemberEntry); ok {
		return rf(ctx, collectiveID, e), args.Error(1)
	}
	return args.Get(0).(model.MemberEntry), args.Error(1)
}

func (m *MemberRepository) DeleteExcept(ctx context.Context, collectiveID string, keepIDs []string) (int64, error) {
	args := m.Called(ctx, collectiveID, keepIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MemberRepository) ListByPerson(ctx context.Context, personID string) ([]model.PersonMembership, error) {
	args := m.Called(ctx, personID)
	var res []model.PersonMembership
	if v := args.Get(0); v != nil {
		res = v.([]model.PersonMembership)
	}
	return res, args.Error(1)
}

// InvitationRepository мокирует service.InvitationRepository.
type InvitationRepository struct {
	mock.Mock
}

func (m *InvitationRepository) ListByCollective(ctx context.Context, collectiveID string, roles []model.Role) ([]model.MemberEntry, error) {
	args := m.Called(ctx, collectiveID, roles)
	return entries(args.Get(0)), args.Error(1)
}

func (m *InvitationRepository) Upsert(ctx context.Context, collectiveID string, e model.MemberEntry) (model.MemberEntry, error) {
	args := m.Called(ctx, collectiveID, e)
	if rf, ok := args.Get(0).(func(context.Context, string, model.MemberEntry) model.MemberEntry); ok {
		return rf(ctx, collectiveID, e), args.Error(1)
	}
	return args.Get(0).(model.MemberEntry), args.Error(1)
}

func (m *InvitationRepository) DeleteExcept(ctx context.Context, collectiveID string, keepIDs []string) (int64, error) {
	args := m.Called(ctx, collectiveID, keepIDs)
	return args.Get(0).(int64), args.Error(1)
}

// PersonRepository мокирует service.PersonRepository.
type PersonRepository struct {
	mock.Mock
}

func (m *PersonRepository) GetByID(ctx context.Context, id string) (model.Person, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Person), args.Error(1)
}

func (m *PersonRepository) GetByEmail(ctx context.Context, email string) (model.Person, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Person), args.Error(1)
}

func (m *PersonRepository) Search(ctx context.Context, query, personType string, exclude []string, limit int) ([]model.Person, error) {
	args := m.Called(ctx, query, personType, exclude, limit)
	var res []model.Person
	if v := args.Get(0); v != nil {
		res = v.([]model.Person)
	}
	return res, args.Error(1)
}

func (m *PersonRepository) Create(ctx context.Context, p model.Person) (model.Person, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Person), args.Error(1)
}

// TransactionManager мокирует service.TransactionManager. Return может принимать функцию,
// которая вызывается вместо возврата готовой ошибки.
type TransactionManager struct {
	mock.Mock
}

func (m *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if rf, ok := args.Get(0).(func(context.Context, func(context.Context) error) error); ok {
		return rf(ctx, fn)
	}
	return args.Error(0)
}

// SnapshotCache мокирует service.SnapshotCache.
type SnapshotCache struct {
	mock.Mock
}

func (m *SnapshotCache) Get(ctx context.Context, collectiveID string) (model.RosterSnapshot, bool, error) {
	args := m.Called(ctx, collectiveID)
	return args.Get(0).(model.RosterSnapshot), args.Bool(1), args.Error(2)
}

func (m *SnapshotCache) Generation(ctx context.Context, collectiveID string) (int64, error) {
	args := m.Called(ctx, collectiveID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SnapshotCache) Set(ctx context.Context, snap model.RosterSnapshot, generation int64) error {
	args := m.Called(ctx, snap, generation)
	return args.Error(0)
}

func (m *SnapshotCache) Invalidate(ctx context.Context, collectiveID string) error {
	args := m.Called(ctx, collectiveID)
	return args.Error(0)
}

func entries(v any) []model.MemberEntry {
	if v == nil {
		return nil
	}
	return v.([]model.MemberEntry)
}
