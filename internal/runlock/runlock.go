// Package runlock ensures one import run per catalog at a time across processes
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another run holds the lock
var ErrLocked = errors.New("runlock: another import is in progress")

// Locker grants exclusive ownership of a key. The returned release func is idempotent.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker is an in-process Locker
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocal creates an in-process locker
func NewLocal() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrLocked
	}
	l.held[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds locks as Redis keys set with NX and a TTL, so a crashed holder
// frees the lock once the TTL passes
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis creates a Redis-backed locker. Keys are namespaced under prefix.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token)
		})
	}, nil
}
