package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte cache with per-entry TTL. It backs generator responses;
// user activity lives in a UserStore.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a stable cache key from arbitrary input
func CacheKey(input string) string {
	hash := sha256.Sum256([]byte(input))
	return "persona:v1:" + hex.EncodeToString(hash[:])
}
