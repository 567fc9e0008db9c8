package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"team-roster-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// entryTable: общие запросы для таблиц members и member_invitations,
// у которых одинаковая структура строк.
type entryTable struct {
	db    *Postgres
	table string
	kind  model.EntryKind
}

func (t entryTable) listByCollective(ctx context.Context, collectiveID string, roles []model.Role) ([]model.MemberEntry, error) {
	roleNames := make([]string, 0, len(roles))
	for _, r := range roles {
		roleNames = append(roleNames, string(r))
	}

	q := t.db.GetQueryExecutor(ctx)
	rows, err := q.Query(ctx, fmt.Sprintf(`
SELECT e.id, e.role, e.description, e.since,
       p.id, p.name, p.slug, COALESCE(p.email, ''), p.image_url, p.type
FROM %s e
JOIN people p ON p.id = e.person_id
WHERE e.collective_id = $1 AND e.role = ANY($2)
ORDER BY e.created_at, e.id
`, t.table), collectiveID, roleNames)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.table, err)
	}
	defer rows.Close()

	res := make([]model.MemberEntry, 0)
	for rows.Next() {
		var e model.MemberEntry
		var role string
		var since *time.Time
		var p model.Person
		if err := rows.Scan(&e.ID, &role, &e.Description, &since,
			&p.ID, &p.Name, &p.Slug, &p.Email, &p.ImageURL, &p.Type); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.table, err)
		}
		e.Role = model.Role(role)
		e.Since = since
		e.Member = &p
		e.Kind = t.kind
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

func (t entryTable) upsert(ctx context.Context, collectiveID string, e model.MemberEntry) (model.MemberEntry, error) {
	if e.Member == nil || e.Member.ID == "" {
		return model.MemberEntry{}, ErrPersonNotFound
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	q := t.db.GetQueryExecutor(ctx)
	_, err := q.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s (id, collective_id, person_id, role, description, since)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET role        = EXCLUDED.role,
    description = EXCLUDED.description,
    since       = EXCLUDED.since
`, t.table), e.ID, collectiveID, e.Member.ID, string(e.Role), e.Description, e.Since)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.MemberEntry{}, ErrDuplicateMember
		}
		return model.MemberEntry{}, fmt.Errorf("upsert %s %s: %w", t.table, e.ID, err)
	}
	e.Kind = t.kind
	return e, nil
}

func (t entryTable) deleteExcept(ctx context.Context, collectiveID string, keepIDs []string) (int64, error) {
	if keepIDs == nil {
		keepIDs = []string{}
	}
	q := t.db.GetQueryExecutor(ctx)
	tag, err := q.Exec(ctx, fmt.Sprintf(`
DELETE FROM %s
WHERE collective_id = $1 AND NOT (id = ANY($2))
`, t.table), collectiveID, keepIDs)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.table, err)
	}
	return tag.RowsAffected(), nil
}
