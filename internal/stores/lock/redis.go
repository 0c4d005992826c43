package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultKeyPrefix = "lock:"
	DefaultTTL       = 30 * time.Second

	minBackoff = 10 * time.Millisecond
	maxBackoff = 500 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker is a distributed integration.Locker backed by SET NX.
// Locks expire after the TTL so a crashed holder cannot block a pair forever.
type RedisLocker struct {
	rdb       redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisOptions configures a RedisLocker
type RedisOptions struct {
	Addr      string
	Password  string
	KeyPrefix string        // Defaults to "lock:"
	TTL       time.Duration // Defaults to 30s
	Logger    *zap.Logger
}

// NewRedisLocker connects to redis and verifies the connection with a ping
func NewRedisLocker(ctx context.Context, opts *RedisOptions) (*RedisLocker, error) {
	if opts == nil || opts.Addr == "" {
		return nil, fmt.Errorf("a redis address must be provided")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisLockerFromClient(rdb, opts), nil
}

// NewRedisLockerFromClient wraps an existing redis client
func NewRedisLockerFromClient(rdb redis.UniversalClient, opts *RedisOptions) *RedisLocker {
	l := &RedisLocker{
		rdb:       rdb,
		keyPrefix: DefaultKeyPrefix,
		ttl:       DefaultTTL,
		logger:    zap.NewNop(),
	}

	if opts != nil {
		if opts.KeyPrefix != "" {
			l.keyPrefix = opts.KeyPrefix
		}
		if opts.TTL > 0 {
			l.ttl = opts.TTL
		}
		if opts.Logger != nil {
			l.logger = opts.Logger
		}
	}

	return l
}

// Lock blocks until the key is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := l.keyPrefix + key
	token := uuid.New().String()
	backoff := minBackoff

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock '%s': %w", key, err)
		}
		if ok {
			l.logger.Debug("lock acquired", zap.String("key", lockKey))
			return l.releaser(lockKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = nextBackoff(backoff)
		}
	}
}

// releaser returns a once-only release func. Release uses a fresh context so a
// cancelled request still frees its lock.
func (l *RedisLocker) releaser(lockKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(lockKey, token) })
	}
}

func (l *RedisLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := releaseScript.Run(ctx, l.rdb, []string{lockKey}, token).Int64()
	switch {
	case err != nil && !errors.Is(err, redis.Nil):
		l.logger.Warn("failed to release lock", zap.String("key", lockKey), zap.Error(err))
	case result == 0:
		l.logger.Warn("lock expired before release", zap.String("key", lockKey))
	default:
		l.logger.Debug("lock released", zap.String("key", lockKey))
	}
}

// Close closes the underlying redis client
func (l *RedisLocker) Close() error {
	return l.rdb.Close()
}

// nextBackoff doubles the wait up to maxBackoff
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
