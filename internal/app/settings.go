package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/domain"
)

const (
	minLeaderboardTTL = 1 * time.Second
	maxLeaderboardTTL = 24 * time.Hour
)

// SettingsCache keeps the leaderboard TTL in memory so the cache hit path never
// waits on the settings store. It is refreshed at startup, on a timer and
// whenever a peer announces a settings change.
type SettingsCache struct {
	settings domain.SettingsRepository
	clock    clockwork.Clock
	ttl      atomic.Int64
}

func NewSettingsCache(settings domain.SettingsRepository, clock clockwork.Clock) *SettingsCache {
	c := &SettingsCache{settings: settings, clock: clock}
	c.ttl.Store(int64(DefaultLeaderboardTTL))
	return c
}

// LeaderboardTTL returns the last successfully loaded TTL, or the default.
func (c *SettingsCache) LeaderboardTTL() time.Duration {
	return time.Duration(c.ttl.Load())
}

// Refresh reloads the TTL. A missing setting resets to the default; an
// unreadable or out-of-range value keeps the previous TTL.
func (c *SettingsCache) Refresh(ctx context.Context) error {
	raw, err := c.settings.Get(ctx, domain.SettingLeaderboardCacheTTL)
	if errors.Is(err, domain.ErrNotFound) {
		c.ttl.Store(int64(DefaultLeaderboardTTL))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load leaderboard ttl: %w", err)
	}

	ttl, err := parseTTLSeconds(raw)
	if err != nil {
		return err
	}

	if previous := time.Duration(c.ttl.Swap(int64(ttl))); previous != ttl {
		slog.InfoContext(ctx, "Leaderboard cache TTL changed", "previous", previous, "current", ttl)
	}
	return nil
}

// StartRefreshTimer periodically reloads the TTL. Returns a stop function.
func (c *SettingsCache) StartRefreshTimer(ctx context.Context, interval time.Duration) func() {
	ticker := c.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if err := c.Refresh(ctx); err != nil {
					slog.WarnContext(ctx, "Failed to refresh settings", "error", err)
				}
			case <-done:
				ticker.Stop()
				return
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func parseTTLSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", domain.ErrInvalidSetting, domain.SettingLeaderboardCacheTTL, raw)
	}
	if seconds < int(minLeaderboardTTL.Seconds()) || seconds > int(maxLeaderboardTTL.Seconds()) {
		return 0, fmt.Errorf("%w: %s must be between %d and %d seconds", domain.ErrInvalidSetting,
			domain.SettingLeaderboardCacheTTL, int(minLeaderboardTTL.Seconds()), int(maxLeaderboardTTL.Seconds()))
	}
	return time.Duration(seconds) * time.Second, nil
}

type settingsNotifier interface {
	PublishSettingsChanged(ctx context.Context) error
}

// SettingsService writes operator settings and propagates them to every instance.
type SettingsService struct {
	settings domain.SettingsRepository
	cache    *SettingsCache
	peers    settingsNotifier
}

// NewSettingsService creates the service. peers may be nil for single-instance deployments.
func NewSettingsService(settings domain.SettingsRepository, cache *SettingsCache, peers settingsNotifier) *SettingsService {
	return &SettingsService{settings: settings, cache: cache, peers: peers}
}

// SetLeaderboardTTL stores the TTL in whole seconds and applies it locally right away.
func (s *SettingsService) SetLeaderboardTTL(ctx context.Context, seconds int) (time.Duration, error) {
	raw := strconv.Itoa(seconds)
	ttl, err := parseTTLSeconds(raw)
	if err != nil {
		return 0, err
	}

	if err := s.settings.Set(ctx, domain.SettingLeaderboardCacheTTL, raw); err != nil {
		return 0, fmt.Errorf("failed to store leaderboard ttl: %w", err)
	}

	if err := s.cache.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to apply leaderboard ttl locally", "error", err)
	}

	if s.peers != nil {
		if err := s.peers.PublishSettingsChanged(ctx); err != nil {
			slog.WarnContext(ctx, "Failed to broadcast settings change", "error", err)
		}
	}
	return ttl, nil
}

// LeaderboardTTL returns the TTL currently in effect on this instance.
func (s *SettingsService) LeaderboardTTL() time.Duration {
	return s.cache.LeaderboardTTL()
}
