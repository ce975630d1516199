package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero value means the entry never expires
}

// Memory is a volatile Backend storing entries in a process-local map guarded
// by a mutex. Concurrent orchestration runs in the same process share one
// instance, so every access is serialized. Values are copied on write and on
// read to prevent external mutation of internal buffers.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// MemoryOptions configure a Memory backend.
type MemoryOptions struct {
	// Clock supplies the current time; used by tests to simulate expiry.
	Clock func() time.Time
}

// NewMemory constructs an empty in-memory cache backend.
func NewMemory(optFns ...func(o *MemoryOptions)) *Memory {
	opts := MemoryOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Memory{entries: make(map[string]memoryEntry), now: opts.Clock}
}

// Get implements Backend with lazy expiry: an expired entry is removed on the
// read that discovers it and reported as a miss.
func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && entry.expiresAt.Before(m.now()) {
		delete(m.entries, key)
		return nil, false, nil
	}
	cp := make([]byte, len(entry.value))
	copy(cp, entry.value)
	return cp, true, nil
}

// Set implements Backend.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	entry := memoryEntry{value: cp}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
