package locks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UserLocker serialises plan writes per user. Generation and rebalance
// requests for the same user must never interleave; cross-user requests
// are unconstrained.
type UserLocker interface {
	// TryLock acquires the lock for the key, returning a release func.
	// ok is false when another holder owns the lock.
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// Memory is an in-process keyed advisory lock. Sufficient for a single
// API instance and for tests.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemory returns an in-process UserLocker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

func (m *Memory) TryLock(_ context.Context, key string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.held[key]; taken {
		return nil, false, nil
	}
	m.held[key] = struct{}{}
	release := func() {
		m.mu.Lock()
		delete(m.held, key)
		m.mu.Unlock()
	}
	return release, true, nil
}

// Redis is a cross-instance advisory lock built on SET NX with a TTL.
// The TTL bounds lock leakage if a holder crashes mid-write.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis returns a Redis-backed UserLocker.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	return &Redis{client: client, ttl: ttl, prefix: "planlock:"}
}

func (r *Redis) TryLock(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	full := r.prefix + key

	ok, err := r.client.SetNX(ctx, full, token, r.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Delete only if we still own the lock.
		const script = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = r.client.Eval(ctx, script, []string{full}, token).Err()
	}
	return release, true, nil
}
