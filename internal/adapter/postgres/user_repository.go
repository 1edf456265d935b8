package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pscheid92/repledger/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, COALESCE(handle, ''), hidden, created_at FROM users WHERE id = $1`

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, getUserByID, userID).Scan(&u.ID, &u.Handle, &u.Hidden, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get user by ID", err)
	}
	return &u, nil
}

const upsertUser = `-- name: UpsertUser :one
INSERT INTO users (id, handle) VALUES ($1, NULLIF($2, ''))
ON CONFLICT (id) DO UPDATE SET handle = COALESCE(EXCLUDED.handle, users.handle)
RETURNING id, COALESCE(handle, ''), hidden, created_at`

// Upsert creates the user or updates the handle. An empty handle never erases a known one.
func (r *UserRepo) Upsert(ctx context.Context, userID int64, handle string) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, upsertUser, userID, handle).Scan(&u.ID, &u.Handle, &u.Hidden, &u.CreatedAt)
	if err != nil {
		return nil, wrapErr("upsert user", err)
	}
	return &u, nil
}

const setUserHidden = `-- name: SetUserHidden :exec
UPDATE users SET hidden = $2 WHERE id = $1`

func (r *UserRepo) SetHidden(ctx context.Context, userID int64, hidden bool) error {
	tag, err := r.pool.Exec(ctx, setUserHidden, userID, hidden)
	if err != nil {
		return wrapErr("update user visibility", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const ensureUsers = `-- name: EnsureUsers :exec
INSERT INTO users (id) VALUES ($1), ($2) ON CONFLICT (id) DO NOTHING`

// ensureUsersTx creates placeholder rows for users first seen as evaluator, target or favorite.
func ensureUsersTx(ctx context.Context, tx pgx.Tx, a, b int64) error {
	if _, err := tx.Exec(ctx, ensureUsers, a, b); err != nil {
		return wrapErr("ensure users", err)
	}
	return nil
}
