// Package redislock serializes booking writes per worker day across processes.
package redislock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"cleanmarket/internal/app/uow"
	"cleanmarket/internal/domain/shared/calendar"
)

const (
	defaultTTL  = 10 * time.Second
	defaultPoll = 25 * time.Millisecond
)

// release deletes the key only while it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements uow.SlotLocker with SET NX PX. The TTL bounds how long a
// crashed holder can block the slot.
type Locker struct {
	client redis.UniversalClient
	ttl    time.Duration
	poll   time.Duration
	prefix string
	logger *slog.Logger
}

type Option func(*Locker)

func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(l *Locker) {
		if d > 0 {
			l.poll = d
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(l *Locker) { l.prefix = prefix }
}

func New(client redis.UniversalClient, logger *slog.Logger, opts ...Option) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Locker{client: client, ttl: defaultTTL, poll: defaultPoll, prefix: "cleanmarket:", logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock polls until the key is acquired or ctx ends.
func (l *Locker) Lock(ctx context.Context, workerID string, date calendar.Date) (func(), error) {
	key := l.prefix + uow.SlotKey(workerID, date)
	token := uuid.NewString()
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", uow.ErrLockTimeout, key, ctx.Err())
			}
			return nil, fmt.Errorf("redislock: acquire %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", uow.ErrLockTimeout, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) releaser(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := release.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("slot lock release failed", "key", key, "error", err)
		}
	}
}

// Ping reports whether Redis is reachable.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
