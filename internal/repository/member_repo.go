package repository

import (
	"context"
	"fmt"

	"team-roster-service/internal/model"
)

// MemberRepo реализует репозиторий подтверждённых участников команды.
type MemberRepo struct {
	t entryTable
}

// NewMemberRepo создаёт новый экземпляр MemberRepo.
func NewMemberRepo(db *Postgres) *MemberRepo {
	return &MemberRepo{t: entryTable{db: db, table: "members", kind: model.KindMember}}
}

// ListByCollective возвращает участников коллектива с указанными ролями в порядке добавления.
func (r *MemberRepo) ListByCollective(ctx context.Context, collectiveID string, roles []model.Role) ([]model.MemberEntry, error) {
	return r.t.listByCollective(ctx, collectiveID, roles)
}

// Upsert создаёт участника или обновляет роль, описание и дату существующего.
// Если человек уже состоит в команде под другим ID, возвращает ErrDuplicateMember.
func (r *MemberRepo) Upsert(ctx context.Context, collectiveID string, e model.MemberEntry) (model.MemberEntry, error) {
	return r.t.upsert(ctx, collectiveID, e)
}

// DeleteExcept удаляет участников коллектива, чьих ID нет в keepIDs.
func (r *MemberRepo) DeleteExcept(ctx context.Context, collectiveID string, keepIDs []string) (int64, error) {
	return r.t.deleteExcept(ctx, collectiveID, keepIDs)
}

// ListByPerson возвращает все членства человека.
func (r *MemberRepo) ListByPerson(ctx context.Context, personID string) ([]model.PersonMembership, error) {
	q := r.t.db.GetQueryExecutor(ctx)
	rows, err := q.Query(ctx, `
SELECT collective_id, role
FROM members
WHERE person_id = $1
ORDER BY collective_id
`, personID)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	res := make([]model.PersonMembership, 0)
	for rows.Next() {
		var m model.PersonMembership
		var role string
		if err := rows.Scan(&m.CollectiveID, &role); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		m.Role = model.Role(role)
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}
