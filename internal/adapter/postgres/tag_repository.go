package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/repledger/internal/domain"
)

type TagRepo struct {
	pool *pgxpool.Pool
}

func NewTagRepo(pool *pgxpool.Pool) *TagRepo {
	return &TagRepo{pool: pool}
}

const createTag = `-- name: CreateTag :one
INSERT INTO tags (name, type) VALUES ($1, $2)
RETURNING id, name, type, active`

func (r *TagRepo) Create(ctx context.Context, name string, tagType domain.TagType) (*domain.Tag, error) {
	var t domain.Tag
	err := r.pool.QueryRow(ctx, createTag, name, string(tagType)).Scan(&t.ID, &t.Name, &t.Type, &t.Active)
	if isPgCode(err, uniqueViolation) {
		return nil, domain.ErrDuplicateTag
	}
	if err != nil {
		return nil, wrapErr("create tag", err)
	}
	return &t, nil
}

const getTagByID = `-- name: GetTagByID :one
SELECT id, name, type, active FROM tags WHERE id = $1`

func (r *TagRepo) GetByID(ctx context.Context, tagID int64) (*domain.Tag, error) {
	var t domain.Tag
	err := r.pool.QueryRow(ctx, getTagByID, tagID).Scan(&t.ID, &t.Name, &t.Type, &t.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get tag by ID", err)
	}
	return &t, nil
}

const listTags = `-- name: ListTags :many
SELECT id, name, type, active FROM tags
WHERE active OR NOT $1
ORDER BY type DESC, LOWER(name), id`

// List orders positive tags first, then by name.
func (r *TagRepo) List(ctx context.Context, activeOnly bool) ([]domain.Tag, error) {
	rows, err := r.pool.Query(ctx, listTags, activeOnly)
	if err != nil {
		return nil, wrapErr("list tags", err)
	}
	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Tag, error) {
		var t domain.Tag
		err := row.Scan(&t.ID, &t.Name, &t.Type, &t.Active)
		return t, err
	})
	if err != nil {
		return nil, wrapErr("list tags", err)
	}
	return tags, nil
}

const renameTag = `-- name: RenameTag :exec
UPDATE tags SET name = $2 WHERE id = $1`

func (r *TagRepo) Rename(ctx context.Context, tagID int64, name string) error {
	tag, err := r.pool.Exec(ctx, renameTag, tagID, name)
	if isPgCode(err, uniqueViolation) {
		return domain.ErrDuplicateTag
	}
	if err != nil {
		return wrapErr("rename tag", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const setTagActive = `-- name: SetTagActive :exec
UPDATE tags SET active = $2 WHERE id = $1`

func (r *TagRepo) SetActive(ctx context.Context, tagID int64, active bool) error {
	tag, err := r.pool.Exec(ctx, setTagActive, tagID, active)
	if err != nil {
		return wrapErr("update tag", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
