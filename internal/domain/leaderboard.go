package domain

import (
	"context"
	"time"
)

// AllTags selects every tag of the requested vote type.
const AllTags int64 = 0

// MaxPageSize bounds leaderboard and favorites pages.
const MaxPageSize = 100

// ValidPage reports whether page and pageSize can be served.
func ValidPage(page, pageSize int) bool {
	return page >= 1 && pageSize >= 1 && pageSize <= MaxPageSize
}

// RankedUser is one leaderboard row.
type RankedUser struct {
	Rank   int
	UserID int64
	Handle string
	Count  int
}

// LeaderboardPage is an immutable, ranked slice of one (tag, vote type) leaderboard.
type LeaderboardPage struct {
	TagID      int64
	VoteType   VoteType
	Page       int
	PageSize   int
	TotalPages int
	Rows       []RankedUser
	ComputedAt time.Time
}

// RankingQuery is the store-side ranking of targets for one leaderboard slice.
// Rows are ordered by count desc, handle asc, user id asc; hidden users are excluded.
type RankingQuery interface {
	CountRankedTargets(ctx context.Context, tagID int64, voteType VoteType) (int, error)
	RankTargets(ctx context.Context, tagID int64, voteType VoteType, limit, offset int) ([]RankedUser, error)
}

// TTLSource reports the current leaderboard cache TTL. Implementations must not block.
type TTLSource interface {
	LeaderboardTTL() time.Duration
}

// InvalidationPublisher tells peer instances to drop their leaderboard caches.
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context) error
}
