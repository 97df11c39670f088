package cache

import "time"

// Cache is the interface for caching recently submitted transaction records.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found, (nil, false) if not found.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL. A zero TTL never expires.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Wait blocks until pending writes are visible to Get.
	Wait()

	// Close closes the cache and releases resources.
	Close()
}
