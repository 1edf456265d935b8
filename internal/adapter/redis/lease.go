package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const scanLeaseKey = "anomaly:scan-lease"

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// ScanLease elects one instance per scan interval to run the anomaly scan.
// The holder keeps the lease by renewing it on each scan; a crashed holder
// loses it when the TTL runs out.
type ScanLease struct {
	rdb        *goredis.Client
	instanceID string
	ttl        time.Duration
}

// NewScanLease creates a lease. ttl should be a little shorter than the scan interval.
func NewScanLease(rdb *goredis.Client, instanceID string, ttl time.Duration) *ScanLease {
	return &ScanLease{rdb: rdb, instanceID: instanceID, ttl: ttl}
}

func (l *ScanLease) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, scanLeaseKey, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire scan lease: %w", err)
	}
	if ok {
		return true, nil
	}

	renewed, err := renewScript.Run(ctx, l.rdb, []string{scanLeaseKey}, l.instanceID, l.ttl.Milliseconds()).Int()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, fmt.Errorf("failed to renew scan lease: %w", err)
	}
	return renewed == 1, nil
}

// Release drops the lease if this instance still holds it.
func (l *ScanLease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.rdb, []string{scanLeaseKey}, l.instanceID).Err(); err != nil {
		return fmt.Errorf("failed to release scan lease: %w", err)
	}
	return nil
}
