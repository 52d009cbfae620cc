// Package otp holds one-time login codes.  A Store keeps at most one live
// code per phone; Put overwrites and Consume deletes on a match so a code
// verifies exactly once.
package otp

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the keyed challenge store injected into the auth service.
type Store interface {
	// Put makes code the sole live challenge for phone until ttl elapses.
	Put(ctx context.Context, phone, code string, ttl time.Duration) error
	// Consume deletes the challenge and returns true when code matches
	// the live challenge for phone.  Absent, expired and mismatched codes
	// return false and leave the store unchanged.
	Consume(ctx context.Context, phone, code string) (bool, error)
}

// consumeScript compares and deletes in one round trip so two concurrent
// verifications cannot both succeed.
var consumeScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[1])
	if current and current == ARGV[1] then
		redis.call('DEL', KEYS[1])
		return 1
	end
	return 0
`)

// RedisStore keeps challenges under "<prefix>:<phone>" with a native TTL.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(phone string) string { return s.prefix + ":" + phone }

func (s *RedisStore) Put(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(phone), code, ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, phone, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.rdb, []string{s.key(phone)}, code).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type entry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is a single-process Store used when Redis is not reachable
// and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, phone, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = entry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, phone, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[phone]
	if !ok {
		return false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, phone)
		return false, nil
	}
	if e.code != code {
		return false, nil
	}
	delete(s.entries, phone)
	return true, nil
}
