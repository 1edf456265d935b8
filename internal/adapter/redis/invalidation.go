package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pscheid92/repledger/internal/metrics"
	goredis "github.com/redis/go-redis/v9"
)

const (
	leaderboardChannel = "leaderboard:invalidate"
	settingsChannel    = "settings:invalidate"
)

type cacheInvalidator interface {
	InvalidateAll()
}

type settingsRefresher interface {
	Refresh(ctx context.Context) error
}

// InvalidationBus fans cache invalidations and settings changes out to every
// instance. The payload is the sender's instance id so senders skip their own
// messages; they have already applied the change locally.
type InvalidationBus struct {
	rdb        *goredis.Client
	instanceID string
	cache      cacheInvalidator
	settings   settingsRefresher
	metrics    *metrics.RedisMetrics
}

func NewInvalidationBus(rdb *goredis.Client, instanceID string, cache cacheInvalidator, settings settingsRefresher, m *metrics.RedisMetrics) *InvalidationBus {
	return &InvalidationBus{
		rdb:        rdb,
		instanceID: instanceID,
		cache:      cache,
		settings:   settings,
		metrics:    m,
	}
}

func (b *InvalidationBus) PublishInvalidation(ctx context.Context) error {
	if err := b.rdb.Publish(ctx, leaderboardChannel, b.instanceID).Err(); err != nil {
		return fmt.Errorf("failed to publish leaderboard invalidation: %w", err)
	}
	return nil
}

func (b *InvalidationBus) PublishSettingsChanged(ctx context.Context) error {
	if err := b.rdb.Publish(ctx, settingsChannel, b.instanceID).Err(); err != nil {
		return fmt.Errorf("failed to publish settings change: %w", err)
	}
	return nil
}

// Start blocks, applying peer messages until ctx is cancelled.
func (b *InvalidationBus) Start(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, leaderboardChannel, settingsChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				return
			}
			b.handleMessage(ctx, msg.Channel, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (b *InvalidationBus) handleMessage(ctx context.Context, channel, sender string) {
	b.metrics.MessageReceived(channel)
	if sender == b.instanceID {
		return
	}

	switch channel {
	case leaderboardChannel:
		b.cache.InvalidateAll()
		slog.Debug("Leaderboard cache invalidated by peer", "peer", sender)
	case settingsChannel:
		if err := b.settings.Refresh(ctx); err != nil {
			slog.Warn("Failed to refresh settings after peer change", "peer", sender, "error", err)
			return
		}
		slog.Debug("Settings refreshed by peer", "peer", sender)
	default:
		slog.Warn("Message on unexpected channel", "channel", channel)
	}
}
