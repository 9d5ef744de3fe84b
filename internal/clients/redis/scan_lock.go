package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/budgelabs/budge-backend/internal/pkg/logger"
)

// ScanLock serializes pattern scans per user. Concurrent scans for the same
// user would interleave the delete-then-insert replacement, so callers hold
// the lock for the duration of one scan.
type ScanLock interface {
	Acquire(ctx context.Context, userID uuid.UUID) (release func(), err error)
}

type scanLock struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewScanLock connects to redis at addr. The lock key carries a TTL so a
// crashed scan cannot wedge a user forever.
func NewScanLock(log *logger.Logger, addr string) (ScanLock, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &scanLock{
		log: log.With("service", "RedisScanLock"),
		rdb: rdb,
		ttl: 30 * time.Second,
	}, nil
}

func (sl *scanLock) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	key := "budge:scan_lock:" + userID.String()
	token := uuid.NewString()

	for {
		ok, err := sl.rdb.SetNX(ctx, key, token, sl.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	release := func() {
		// Delete only our own token so an expired lock taken over by
		// another scan is left alone.
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sl.rdb.Eval(ctx, script, []string{key}, token).Err(); err != nil {
			sl.log.Warn("Failed to release scan lock", "key", key, "error", err)
		}
	}
	return release, nil
}
