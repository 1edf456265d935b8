package domain

import (
	"context"
	"time"
)

// FavoriteEdge is a directed watch-list entry from owner to target.
type FavoriteEdge struct {
	OwnerID      int64
	TargetID     int64
	TargetHandle string
	CreatedAt    time.Time
}

type FavoritePage struct {
	OwnerID    int64
	Page       int
	PageSize   int
	TotalPages int
	Edges      []FavoriteEdge
}

type FavoriteRepository interface {
	// Add is idempotent and creates missing users.
	Add(ctx context.Context, ownerID, targetID int64, createdAt time.Time) error
	// Remove is idempotent.
	Remove(ctx context.Context, ownerID, targetID int64) error
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]FavoriteEdge, error)
	// CountOwnersOf returns how many users have target on their watch list.
	CountOwnersOf(ctx context.Context, targetID int64) (int, error)
}
