package lock

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
}

func TestNewRedisLocker_RequiresAddr(t *testing.T) {
	_, err := NewRedisLocker(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewRedisLocker(context.Background(), &RedisOptions{})
	assert.Error(t, err)
}

func TestNewRedisLocker_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisLocker(ctx, &RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestNewRedisLockerFromClient_Defaults(t *testing.T) {
	rdb := unreachableClient()
	defer rdb.Close()

	l := NewRedisLockerFromClient(rdb, nil)
	assert.Equal(t, DefaultKeyPrefix, l.keyPrefix)
	assert.Equal(t, DefaultTTL, l.ttl)
	require.NotNil(t, l.logger)

	l = NewRedisLockerFromClient(rdb, &RedisOptions{KeyPrefix: "test:", TTL: time.Second})
	assert.Equal(t, "test:", l.keyPrefix)
	assert.Equal(t, time.Second, l.ttl)
}

func TestRedisLocker_LockFailsWhenUnreachable(t *testing.T) {
	rdb := unreachableClient()
	l := NewRedisLockerFromClient(rdb, nil)
	defer l.Close()

	unlock, err := l.Lock(context.Background(), "integration:u1:crm")
	assert.Error(t, err)
	assert.Nil(t, unlock)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 20*time.Millisecond, nextBackoff(minBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(400*time.Millisecond))
	assert.Equal(t, maxBackoff, nextBackoff(maxBackoff))
}
