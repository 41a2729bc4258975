package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// LockTTL is how long a lock survives without a refresh.
	LockTTL = 30 * time.Second
	// LockRefreshInterval is how often a running loop extends its lock.
	LockRefreshInterval = LockTTL / 3
)

// Locker guarantees a single process drives a game at a time.
type Locker interface {
	Acquire(ctx context.Context, gameID uuid.UUID) (bool, error)
	Refresh(ctx context.Context, gameID uuid.UUID) error
	Release(ctx context.Context, gameID uuid.UUID) error
}

// Only the owner may extend or delete a lock.
var (
	refreshScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
	releaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
)

// RedisLock is a Locker backed by SET NX with an expiry.
type RedisLock struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

var _ Locker = (*RedisLock)(nil)

func NewRedisLock(client *redis.Client, owner string, ttl time.Duration) *RedisLock {
	if owner == "" {
		owner = fmt.Sprintf("engine-%s", uuid.New().String()[:8])
	}
	return &RedisLock{client: client, owner: owner, ttl: ttl}
}

func lockKey(gameID uuid.UUID) string {
	return fmt.Sprintf("game-lock:%s", gameID.String())
}

// Acquire returns false when another owner holds the lock.
func (l *RedisLock) Acquire(ctx context.Context, gameID uuid.UUID) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(gameID), l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire game lock: %w", err)
	}
	return ok, nil
}

// Refresh extends the lock. It fails when the lock was lost.
func (l *RedisLock) Refresh(ctx context.Context, gameID uuid.UUID) error {
	n, err := refreshScript.Run(ctx, l.client, []string{lockKey(gameID)}, l.owner, l.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to refresh game lock: %w", err)
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

func (l *RedisLock) Release(ctx context.Context, gameID uuid.UUID) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey(gameID)}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release game lock: %w", err)
	}
	return nil
}
