package domain

import "context"

// SettingLeaderboardCacheTTL holds the leaderboard cache TTL in integer seconds.
const SettingLeaderboardCacheTTL = "leaderboard_cache_ttl"

type SettingsRepository interface {
	// Get returns ErrNotFound when the key has never been set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
