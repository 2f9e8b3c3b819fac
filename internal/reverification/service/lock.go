package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker grants time-bounded exclusive leases on a key.
type Locker interface {
	// TryLock acquires key for ttl. ok is false when another holder has it.
	// release gives the lease back early and is safe to call once the lease expired.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker leases keys with SET NX PX so only one instance holds them.
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker creates a locker backed by client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock acquires key with a random token.
func (l *RedisLocker) TryLock(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (func(context.Context) error, bool, error) {
	token, err := newToken()
	if err != nil {
		return nil, false, err
	}

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock error: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock error: %w", err)
		}
		return nil
	}
	return release, true, nil
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// LocalLocker leases keys inside one process.
type LocalLocker struct {
	mu     sync.Mutex
	next   uint64
	leases map[string]localLease
	clock  func() time.Time
}

type localLease struct {
	token     uint64
	expiresAt time.Time
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]localLease), clock: time.Now}
}

// TryLock acquires key unless an unexpired lease exists.
func (l *LocalLocker) TryLock(
	ctx context.Context,
	key string,
	ttl time.Duration,
) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	current, held := l.leases[key]
	if held && now.Before(current.expiresAt) {
		return nil, false, nil
	}

	l.next++
	lease := localLease{token: l.next, expiresAt: now.Add(ttl)}
	l.leases[key] = lease

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.leases[key].token == lease.token {
			delete(l.leases, key)
		}
		return nil
	}
	return release, true, nil
}
