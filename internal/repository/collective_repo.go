package repository

import (
	"context"
	"errors"
	"fmt"

	"team-roster-service/internal/model"

	"github.com/jackc/pgx/v5"
)

// CollectiveRepo реализует чтение коллективов на базе PostgreSQL.
type CollectiveRepo struct {
	db *Postgres
}

// NewCollectiveRepo создаёт новый экземпляр CollectiveRepo.
func NewCollectiveRepo(db *Postgres) *CollectiveRepo {
	return &CollectiveRepo{db: db}
}

// GetByID возвращает коллектив вместе с его родителем, если он есть.
// Если коллектив не найден, возвращает ErrCollectiveNotFound.
func (r *CollectiveRepo) GetByID(ctx context.Context, id string) (model.Collective, error) {
	q := r.db.GetQueryExecutor(ctx)
	row := q.QueryRow(ctx, `
SELECT c.id, c.slug, c.name, c.type,
       p.id, p.slug, p.name, p.type
FROM collectives c
LEFT JOIN collectives p ON p.id = c.parent_id
WHERE c.id = $1
`, id)

	var c model.Collective
	var parentID, parentSlug, parentName, parentType *string
	if err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.Type, &parentID, &parentSlug, &parentName, &parentType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Collective{}, ErrCollectiveNotFound
		}
		return model.Collective{}, fmt.Errorf("get collective: %w", err)
	}

	if parentID != nil && parentSlug != nil && parentName != nil && parentType != nil {
		c.Parent = &model.CollectiveRef{
			ID:   *parentID,
			Slug: *parentSlug,
			Name: *parentName,
			Type: *parentType,
		}
	}
	return c, nil
}
