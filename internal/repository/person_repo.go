package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"team-roster-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PersonRepo реализует репозиторий профилей людей на базе PostgreSQL.
type PersonRepo struct {
	db *Postgres
}

// NewPersonRepo создаёт новый экземпляр PersonRepo.
func NewPersonRepo(db *Postgres) *PersonRepo {
	return &PersonRepo{db: db}
}

const personColumns = `id, name, slug, COALESCE(email, ''), image_url, type`

func scanPerson(row pgx.Row) (model.Person, error) {
	var p model.Person
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Email, &p.ImageURL, &p.Type)
	return p, err
}

// GetByID возвращает профиль по идентификатору. Если не найден, возвращает ErrPersonNotFound.
func (r *PersonRepo) GetByID(ctx context.Context, id string) (model.Person, error) {
	q := r.db.GetQueryExecutor(ctx)
	p, err := scanPerson(q.QueryRow(ctx, `SELECT `+personColumns+` FROM people WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Person{}, ErrPersonNotFound
		}
		return model.Person{}, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

// GetByEmail возвращает профиль по email (без учёта регистра).
func (r *PersonRepo) GetByEmail(ctx context.Context, email string) (model.Person, error) {
	q := r.db.GetQueryExecutor(ctx)
	p, err := scanPerson(q.QueryRow(ctx, `SELECT `+personColumns+` FROM people WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Person{}, ErrPersonNotFound
		}
		return model.Person{}, fmt.Errorf("get person by email: %w", err)
	}
	return p, nil
}

// Search ищет профили заданного типа по имени, slug или email,
// исключая переданные идентификаторы (exclude).
func (r *PersonRepo) Search(ctx context.Context, query, personType string, exclude []string, limit int) ([]model.Person, error) {
	if exclude == nil {
		// NULL в ANY() отфильтровал бы все строки
		exclude = []string{}
	}
	q := r.db.GetQueryExecutor(ctx)
	rows, err := q.Query(ctx, `
SELECT `+personColumns+`
FROM people
WHERE type = $1
  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR slug ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
  AND NOT (id = ANY($3))
ORDER BY name, id
LIMIT $4
`, personType, query, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	res := make([]model.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// Create сохраняет новый профиль. Пустые ID и slug генерируются.
// При конфликте email или slug возвращает ErrPersonExists.
func (r *PersonRepo) Create(ctx context.Context, p model.Person) (model.Person, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Name) + "-" + p.ID[:8]
	}
	if p.Type == "" {
		p.Type = model.PersonTypeUser
	}

	var email *string
	if p.Email != "" {
		email = &p.Email
	}

	q := r.db.GetQueryExecutor(ctx)
	created, err := scanPerson(q.QueryRow(ctx, `
INSERT INTO people (id, name, slug, email, image_url, type)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+personColumns, p.ID, p.Name, p.Slug, email, p.ImageURL, p.Type))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return model.Person{}, ErrPersonExists
		}
		return model.Person{}, fmt.Errorf("insert person: %w", err)
	}
	return created, nil
}

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := reNonSlug.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "person"
	}
	return s
}
