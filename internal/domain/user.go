package domain

import (
	"context"
	"strconv"
	"time"
)

// User is a chat platform identity. ID is the platform's numeric user id.
type User struct {
	ID        int64
	Handle    string
	Hidden    bool
	CreatedAt time.Time
}

// DisplayName returns the handle or, for users without one, a stable fallback.
func (u User) DisplayName() string {
	if u.Handle != "" {
		return "@" + u.Handle
	}
	return "id" + strconv.FormatInt(u.ID, 10)
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	Upsert(ctx context.Context, userID int64, handle string) (*User, error)
	SetHidden(ctx context.Context, userID int64, hidden bool) error
}
