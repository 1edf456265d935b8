package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/repledger/internal/domain"
	"github.com/pscheid92/repledger/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultLeaderboardTTL applies when no TTL setting is available.
const DefaultLeaderboardTTL = 300 * time.Second

type pageKey struct {
	tagID    int64
	voteType domain.VoteType
	page     int
	pageSize int
}

func (k pageKey) String() string {
	return strconv.FormatInt(k.tagID, 10) + ":" + string(k.voteType) + ":" + strconv.Itoa(k.page) + ":" + strconv.Itoa(k.pageSize)
}

// LeaderboardCache serves ranked leaderboard pages from memory, recomputing a
// page from the store when it is missing or older than the current TTL.
//
// Entries are replaced as whole values under the lock, so readers never see a
// partial page. Every mutation of the ledger must call InvalidateAll; the TTL
// only bounds staleness for invalidations that were missed.
type LeaderboardCache struct {
	ranking domain.RankingQuery
	ttl     domain.TTLSource
	clock   clockwork.Clock
	metrics *metrics.LeaderboardMetrics

	mu         sync.RWMutex
	entries    map[pageKey]*domain.LeaderboardPage
	generation uint64

	group singleflight.Group
}

func NewLeaderboardCache(ranking domain.RankingQuery, ttl domain.TTLSource, clock clockwork.Clock, m *metrics.LeaderboardMetrics) *LeaderboardCache {
	return &LeaderboardCache{
		ranking: ranking,
		ttl:     ttl,
		clock:   clock,
		metrics: m,
		entries: make(map[pageKey]*domain.LeaderboardPage),
	}
}

// GetPage returns page `page` of the (tagID, voteType) leaderboard. Pages are
// 1-based; out-of-range pages are clamped to the nearest existing page.
func (c *LeaderboardCache) GetPage(ctx context.Context, tagID int64, voteType domain.VoteType, page, pageSize int) (domain.LeaderboardPage, error) {
	if !domain.ValidPage(page, pageSize) {
		return domain.LeaderboardPage{}, domain.ErrInvalidPage
	}

	key := pageKey{tagID: tagID, voteType: voteType, page: page, pageSize: pageSize}

	entry, generation, ok := c.lookup(key)
	if ok {
		c.metrics.Hit()
		return clonePage(entry), nil
	}
	c.metrics.Miss()

	if err := ctx.Err(); err != nil {
		return domain.LeaderboardPage{}, err
	}

	// The generation is part of the flight key so a request that arrives after an
	// invalidation never joins a recompute that started before it.
	flightKey := key.String() + "@" + strconv.FormatUint(generation, 10)

	// The recompute outlives any single caller; each caller only stops waiting
	// when its own context ends.
	flight := c.group.DoChan(flightKey, func() (any, error) {
		return c.recompute(context.WithoutCancel(ctx), key, generation)
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return domain.LeaderboardPage{}, res.Err
		}
		return clonePage(res.Val.(*domain.LeaderboardPage)), nil
	case <-ctx.Done():
		return domain.LeaderboardPage{}, ctx.Err()
	}
}

// InvalidateAll drops every cached page.
func (c *LeaderboardCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[pageKey]*domain.LeaderboardPage)
	c.generation++
	c.mu.Unlock()

	c.metrics.Invalidated()
}

// Size returns the number of cached pages, including expired ones.
func (c *LeaderboardCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EvictExpired removes pages older than the current TTL and returns how many were removed.
func (c *LeaderboardCache) EvictExpired() int {
	ttl := c.currentTTL()
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, entry := range c.entries {
		if now.Sub(entry.ComputedAt) >= ttl {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// StartEvictionTimer periodically evicts expired pages so the map does not grow
// without bound. Returns a stop function.
func (c *LeaderboardCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := c.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				if evicted := c.EvictExpired(); evicted > 0 {
					slog.Debug("Evicted expired leaderboard pages", "count", evicted, "remaining", c.Size())
				}
				c.metrics.SetSize(c.Size())
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (c *LeaderboardCache) lookup(key pageKey) (*domain.LeaderboardPage, uint64, bool) {
	ttl := c.currentTTL()

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.clock.Since(entry.ComputedAt) >= ttl {
		return nil, c.generation, false
	}
	return entry, c.generation, true
}

func (c *LeaderboardCache) recompute(ctx context.Context, key pageKey, generation uint64) (*domain.LeaderboardPage, error) {
	start := c.clock.Now()

	total, err := c.ranking.CountRankedTargets(ctx, key.tagID, key.voteType)
	if err != nil {
		return nil, fmt.Errorf("failed to count ranked targets: %w", err)
	}

	totalPages, page := clampPage(total, key.page, key.pageSize)

	rows := []domain.RankedUser{}
	if total > 0 {
		offset := (page - 1) * key.pageSize
		rows, err = c.ranking.RankTargets(ctx, key.tagID, key.voteType, key.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to rank targets: %w", err)
		}
		for i := range rows {
			rows[i].Rank = offset + i + 1
		}
	}

	entry := &domain.LeaderboardPage{
		TagID:      key.tagID,
		VoteType:   key.voteType,
		Page:       page,
		PageSize:   key.pageSize,
		TotalPages: totalPages,
		Rows:       rows,
		ComputedAt: c.clock.Now(),
	}
	c.metrics.ObserveRecompute(c.clock.Since(start))

	c.mu.Lock()
	if c.generation == generation {
		c.entries[key] = entry
	}
	c.mu.Unlock()

	return entry, nil
}

func (c *LeaderboardCache) currentTTL() time.Duration {
	if c.ttl == nil {
		return DefaultLeaderboardTTL
	}
	return c.ttl.LeaderboardTTL()
}

func clonePage(p *domain.LeaderboardPage) domain.LeaderboardPage {
	out := *p
	out.Rows = make([]domain.RankedUser, len(p.Rows))
	copy(out.Rows, p.Rows)
	return out
}
