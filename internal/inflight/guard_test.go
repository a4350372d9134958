package inflight

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customError "github.com/segyhp/session-payment-engine/pkg/errors"
)

func TestMemoryGuard_OneSlotPerKey(t *testing.T) {
	ctx := context.Background()
	guard := NewMemoryGuard()

	release, err := guard.Acquire(ctx, SessionKey("S1"))
	require.NoError(t, err)

	_, err = guard.Acquire(ctx, SessionKey("S1"))
	assert.True(t, errors.Is(err, customError.ErrMutationInFlight))

	// Other records are independent.
	releaseOther, err := guard.Acquire(ctx, TransactionKey("S1"))
	require.NoError(t, err)
	releaseOther()

	release()
	release() // releasing twice is harmless

	again, err := guard.Acquire(ctx, SessionKey("S1"))
	require.NoError(t, err)
	again()
}

func TestMemoryGuard_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryGuard().Acquire(ctx, SessionKey("S1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	guard := NewMemoryGuard()
	var acquired int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := guard.Acquire(context.Background(), TransactionKey("T1")); err == nil {
				atomic.AddInt32(&acquired, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&acquired))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "session:42", SessionKey("42"))
	assert.Equal(t, "transaction:42", TransactionKey("42"))
}

// Runs only against a live Redis, e.g. TEST_REDIS_ADDR=localhost:6379.
func TestRedisGuard(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	guard := NewRedisGuard(client, 5*time.Second, nil)
	key := TransactionKey("test-" + time.Now().Format("150405.000000"))

	release, err := guard.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = guard.Acquire(ctx, key)
	assert.True(t, errors.Is(err, customError.ErrMutationInFlight))

	ttl, err := client.TTL(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= 5*time.Second)

	release()

	exists, err := client.Exists(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)

	again, err := guard.Acquire(ctx, key)
	require.NoError(t, err)
	again()
}

func TestRedisGuard_ReleaseKeepsForeignSlot(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	guard := NewRedisGuard(client, 5*time.Second, nil)
	key := SessionKey("test-" + time.Now().Format("150405.000000"))

	release, err := guard.Acquire(ctx, key)
	require.NoError(t, err)

	// Simulate expiry followed by another holder taking the slot.
	require.NoError(t, client.Set(ctx, keyPrefix+key, "someone-else", 5*time.Second).Err())
	release()

	val, err := client.Get(ctx, keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
	require.NoError(t, client.Del(ctx, keyPrefix+key).Err())
}
