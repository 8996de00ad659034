package entitlementcache

import (
	"time"

	"github.com/FreshTrackApp/FreshTrack/internal/pkg/cache"
)

// redisKV adapts the shared Redis cache client to the KV interface.
type redisKV struct{}

// NewRedisKV returns the durable tier backed by the shared Redis cache.
func NewRedisKV() KV {
	return redisKV{}
}

func (redisKV) Get(key string) ([]byte, bool, error) {
	return cache.GetBytes(key)
}

func (redisKV) Set(key string, value []byte, ttl time.Duration) error {
	return cache.Set(key, value, ttl)
}

func (redisKV) Del(key string) error {
	return cache.Delete(key)
}
