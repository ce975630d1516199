// Package cache provides a pluggable key-value store with per-entry expiry,
// used to memoize full consensus results. Backends are closed, enumerable
// implementations: an in-process map, a directory of JSON files and a SQLite
// database. Expired entries are deleted lazily on the read that discovers
// them, never proactively swept.
package cache

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownBackend is returned by FromConfig for unrecognized backend names.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Backend is the storage contract shared by all cache implementations.
// A ttl <= 0 stores the entry without expiry.
type Backend interface {
	// Get returns the stored value, reporting whether the key was present
	// and unexpired.
	Get(key string) ([]byte, bool, error)

	// Set stores the value under key, expiring after ttl if ttl > 0.
	Set(key string, value []byte, ttl time.Duration) error
}

// BuildKey joins the given parts into a deterministic composite cache key.
func BuildKey(parts ...string) string {
	return strings.Join(parts, "::")
}
