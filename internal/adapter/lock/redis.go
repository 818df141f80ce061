package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisLockPrefix = "masspay:lock:"

// RedisRunLocker implements usecase.RunLocker with a redsync mutex whose TTL
// is extended in the background while the run is alive.
type RedisRunLocker struct {
	rs     *redsync.Redsync
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisRunLocker creates a new RedisRunLocker.
func NewRedisRunLocker(client redis.UniversalClient, ttl time.Duration, logger zerolog.Logger) *RedisRunLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &RedisRunLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		ttl:    ttl,
		logger: logger.With().Str("component", "redis_run_locker").Logger(),
	}
}

// TryAcquire takes the mutex for key in a single attempt.
func (l *RedisRunLocker) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	mutex := l.rs.NewMutex(redisLockPrefix+key,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(1),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis lock %q: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(mutex, stop, done)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-done

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if _, err := mutex.UnlockContext(ctx); err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("failed to release redis lock")
			}
		})
	}

	return release, true, nil
}

func (l *RedisRunLocker) keepAlive(mutex *redsync.Mutex, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			ok, err := mutex.ExtendContext(ctx)
			cancel()
			if err != nil || !ok {
				l.logger.Error().Err(err).Str("key", mutex.Name()).Msg("failed to extend redis lock")
			}
		}
	}
}
