package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"moltyverse/pkg/logging"
)

// DefaultMarkerTTL is how long an exchange marker is remembered.
const DefaultMarkerTTL = 10 * time.Minute

// MarkerSet records idempotency keys of exchanges already performed.
type MarkerSet interface {
	// Mark records key and reports whether it was new.
	Mark(ctx context.Context, key string) (bool, error)
}

// MemoryMarkers is an in-process MarkerSet whose entries expire after a TTL.
// It lives as long as the process, the same scope as a browser tab.
type MemoryMarkers struct {
	mu      sync.Mutex
	markers map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryMarkers creates an empty set. A zero ttl uses DefaultMarkerTTL.
func NewMemoryMarkers(ttl time.Duration) *MemoryMarkers {
	if ttl <= 0 {
		ttl = DefaultMarkerTTL
	}
	return &MemoryMarkers{
		markers: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Mark records key unless a live marker already exists.
func (m *MemoryMarkers) Mark(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.cleanupLocked(now)

	if _, exists := m.markers[key]; exists {
		return false, nil
	}
	m.markers[key] = now
	return true, nil
}

// Len returns the number of live markers.
func (m *MemoryMarkers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked(m.now())
	return len(m.markers)
}

func (m *MemoryMarkers) cleanupLocked(now time.Time) {
	count := 0
	for key, createdAt := range m.markers {
		if now.Sub(createdAt) > m.ttl {
			delete(m.markers, key)
			count++
		}
	}
	if count > 0 {
		logging.Debug("OAuth", "Cleaned up %d expired exchange markers", count)
	}
}

// RedisMarkers shares markers between processes through Redis keys with a TTL.
type RedisMarkers struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisMarkers creates a Redis-backed set. Keys are stored as prefix+key.
func NewRedisMarkers(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisMarkers {
	if ttl <= 0 {
		ttl = DefaultMarkerTTL
	}
	return &RedisMarkers{client: client, prefix: prefix, ttl: ttl}
}

// Mark uses SET NX so only the first caller sees true.
func (r *RedisMarkers) Mark(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record exchange marker: %w", err)
	}
	return ok, nil
}
