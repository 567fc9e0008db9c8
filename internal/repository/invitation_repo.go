package repository

import (
	"context"

	"team-roster-service/internal/model"
)

// InvitationRepo реализует репозиторий приглашений в команду, ещё не принятых приглашёнными.
type InvitationRepo struct {
	t entryTable
}

// NewInvitationRepo создаёт новый экземпляр InvitationRepo.
func NewInvitationRepo(db *Postgres) *InvitationRepo {
	return &InvitationRepo{t: entryTable{db: db, table: "member_invitations", kind: model.KindInvitation}}
}

// ListByCollective возвращает ожидающие приглашения коллектива.
func (r *InvitationRepo) ListByCollective(ctx context.Context, collectiveID string, roles []model.Role) ([]model.MemberEntry, error) {
	return r.t.listByCollective(ctx, collectiveID, roles)
}

// Upsert создаёт приглашение или обновляет существующее.
func (r *InvitationRepo) Upsert(ctx context.Context, collectiveID string, e model.MemberEntry) (model.MemberEntry, error) {
	return r.t.upsert(ctx, collectiveID, e)
}

// DeleteExcept отзывает приглашения коллектива, чьих ID нет в keepIDs.
func (r *InvitationRepo) DeleteExcept(ctx context.Context, collectiveID string, keepIDs []string) (int64, error) {
	return r.t.deleteExcept(ctx, collectiveID, keepIDs)
}
