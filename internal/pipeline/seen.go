package pipeline

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// seenCache is a TTL-bound LRU of recently handled article content IDs.
// Kafka redelivers on rebalance and restart; the store upsert is already
// idempotent, so this is purely a cheap short-circuit that skips
// re-normalizing articles handled within the TTL.
type seenCache struct {
	cache *expirable.LRU[string, struct{}]
}

func newSeenCache(size int, ttl time.Duration) *seenCache {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &seenCache{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

func (s *seenCache) Seen(id string) bool {
	_, ok := s.cache.Get(id)
	return ok
}

func (s *seenCache) Mark(id string) {
	s.cache.Add(id, struct{}{})
}
