package cache

import (
	"fmt"
	"time"

	"github.com/vmanoilov/zenrube/logging"
)

// Config selects and parameterizes a cache backend. It mirrors the "cache"
// section of the configuration file.
type Config struct {
	// Backend is one of "memory", "file" or "sqlite".
	Backend string `mapstructure:"backend"`
	// TTLSeconds is the default entry lifetime; 0 means entries never expire.
	TTLSeconds int `mapstructure:"ttl"`
	// Directory roots the file backend.
	Directory string `mapstructure:"directory"`
	// Path locates the sqlite backend database.
	Path string `mapstructure:"path"`
}

// Manager holds one active backend and one default TTL, selected once at
// process configuration time. Read and write failures of the backend are
// logged and treated as a miss / no-op respectively: a cache malfunction must
// never block returning a computed result to the caller.
type Manager struct {
	backend Backend
	ttl     time.Duration
	logger  logging.Logger
}

// NewManager wraps a backend with a default TTL. A nil logger disables logging.
func NewManager(backend Backend, defaultTTL time.Duration, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Manager{backend: backend, ttl: defaultTTL, logger: logger}
}

// FromConfig maps a backend-name string to a concrete backend. Unknown names
// fail fast; this is the only fatal cache error.
func FromConfig(cfg Config, logger logging.Logger) (*Manager, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Backend {
	case "", "memory":
		return NewManager(NewMemory(), ttl, logger), nil
	case "file":
		dir := cfg.Directory
		if dir == "" {
			dir = ".zenrube-cache"
		}
		backend, err := NewFile(dir)
		if err != nil {
			return nil, err
		}
		return NewManager(backend, ttl, logger), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = ".zenrube-cache.db"
		}
		backend, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return NewManager(backend, ttl, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Get returns the cached value for key. Backend errors degrade to a miss.
func (m *Manager) Get(key string) ([]byte, bool) {
	value, ok, err := m.backend.Get(key)
	if err != nil {
		m.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	return value, ok
}

// Set stores value under key. A negative ttl selects the manager's default;
// zero stores without expiry. Backend errors degrade to a no-op.
func (m *Manager) Set(key string, value []byte, ttl time.Duration) {
	if ttl < 0 {
		ttl = m.ttl
	}
	if err := m.backend.Set(key, value, ttl); err != nil {
		m.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// DefaultTTL returns the manager's default entry lifetime.
func (m *Manager) DefaultTTL() time.Duration { return m.ttl }
