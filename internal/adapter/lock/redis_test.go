package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLocker(t *testing.T, ttl time.Duration) (*RedisRunLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRunLocker(client, ttl, zerolog.Nop()), mr
}

func TestRedisRunLocker_Exclusive(t *testing.T) {
	locker, mr := setupRedisLocker(t, 10*time.Second)
	ctx := context.Background()

	release, acquired, err := locker.TryAcquire(ctx, "mass_payment:mp-1")
	require.NoError(t, err)
	require.True(t, acquired)
	assert.True(t, mr.Exists(redisLockPrefix+"mass_payment:mp-1"))

	_, again, err := locker.TryAcquire(ctx, "mass_payment:mp-1")
	require.NoError(t, err)
	assert.False(t, again, "second acquire must be refused")

	release()
	release()
	assert.False(t, mr.Exists(redisLockPrefix+"mass_payment:mp-1"))

	release, acquired, err = locker.TryAcquire(ctx, "mass_payment:mp-1")
	require.NoError(t, err)
	assert.True(t, acquired)
	release()
}

func TestRedisRunLocker_IndependentKeys(t *testing.T) {
	locker, _ := setupRedisLocker(t, 10*time.Second)
	ctx := context.Background()

	releaseA, okA, err := locker.TryAcquire(ctx, "a")
	require.NoError(t, err)
	releaseB, okB, err := locker.TryAcquire(ctx, "b")
	require.NoError(t, err)

	assert.True(t, okA)
	assert.True(t, okB)
	releaseA()
	releaseB()
}

func TestRedisRunLocker_ConcurrentSingleWinner(t *testing.T) {
	locker, _ := setupRedisLocker(t, 10*time.Second)
	ctx := context.Background()

	var (
		mu       sync.Mutex
		winners  int
		releases []func()
		wg       sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, ok, err := locker.TryAcquire(ctx, "group")
			if err != nil || !ok {
				return
			}
			mu.Lock()
			winners++
			releases = append(releases, release)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	for _, release := range releases {
		release()
	}
}

func TestRedisRunLocker_ServerDown(t *testing.T) {
	locker, mr := setupRedisLocker(t, time.Second)
	mr.Close()

	_, acquired, err := locker.TryAcquire(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, acquired)
}
