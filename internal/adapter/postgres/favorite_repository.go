package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/repledger/internal/domain"
)

type FavoriteRepo struct {
	pool *pgxpool.Pool
}

func NewFavoriteRepo(pool *pgxpool.Pool) *FavoriteRepo {
	return &FavoriteRepo{pool: pool}
}

const addFavorite = `-- name: AddFavorite :exec
INSERT INTO favorites (owner_id, target_id, created_at) VALUES ($1, $2, $3)
ON CONFLICT (owner_id, target_id) DO NOTHING`

func (r *FavoriteRepo) Add(ctx context.Context, ownerID, targetID int64, createdAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ensureUsersTx(ctx, tx, ownerID, targetID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, addFavorite, ownerID, targetID, createdAt)
	if isPgCode(err, checkViolation) {
		return domain.ErrSelfFavorite
	}
	if err != nil {
		return wrapErr("add favorite", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit favorite", err)
	}
	return nil
}

const removeFavorite = `-- name: RemoveFavorite :exec
DELETE FROM favorites WHERE owner_id = $1 AND target_id = $2`

func (r *FavoriteRepo) Remove(ctx context.Context, ownerID, targetID int64) error {
	if _, err := r.pool.Exec(ctx, removeFavorite, ownerID, targetID); err != nil {
		return wrapErr("remove favorite", err)
	}
	return nil
}

const countFavoritesByOwner = `-- name: CountFavoritesByOwner :one
SELECT COUNT(*) FROM favorites WHERE owner_id = $1`

func (r *FavoriteRepo) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countFavoritesByOwner, ownerID).Scan(&n); err != nil {
		return 0, wrapErr("count favorites", err)
	}
	return n, nil
}

const listFavoritesByOwner = `-- name: ListFavoritesByOwner :many
SELECT f.owner_id, f.target_id, COALESCE(u.handle, ''), f.created_at
FROM favorites f
JOIN users u ON u.id = f.target_id
WHERE f.owner_id = $1
ORDER BY u.handle ASC, f.target_id ASC
LIMIT $2 OFFSET $3`

func (r *FavoriteRepo) ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]domain.FavoriteEdge, error) {
	rows, err := r.pool.Query(ctx, listFavoritesByOwner, ownerID, limit, offset)
	if err != nil {
		return nil, wrapErr("list favorites", err)
	}

	edges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FavoriteEdge, error) {
		var e domain.FavoriteEdge
		err := row.Scan(&e.OwnerID, &e.TargetID, &e.TargetHandle, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, wrapErr("list favorites", err)
	}
	return edges, nil
}

const countFavoriteOwners = `-- name: CountFavoriteOwners :one
SELECT COUNT(*) FROM favorites WHERE target_id = $1`

func (r *FavoriteRepo) CountOwnersOf(ctx context.Context, targetID int64) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countFavoriteOwners, targetID).Scan(&n); err != nil {
		return 0, wrapErr("count favorite owners", err)
	}
	return n, nil
}
