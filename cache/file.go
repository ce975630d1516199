package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// filePayload is the on-disk representation of a single cache entry.
type filePayload struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt *int64          `json:"expires_at"` // unix seconds, nil = never
}

// File is a Backend persisting one JSON file per key under a directory.
// Filenames are derived from a sanitized key fragment plus a short content
// hash suffix so arbitrary keys cannot collide or produce illegal paths.
type File struct {
	dir string
	now func() time.Time
}

// FileOptions configure a File backend.
type FileOptions struct {
	// Clock supplies the current time; used by tests to simulate expiry.
	Clock func() time.Time
}

// NewFile constructs a file cache rooted at dir, creating it if needed.
func NewFile(dir string, optFns ...func(o *FileOptions)) (*File, error) {
	opts := FileOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &File{dir: dir, now: opts.Clock}, nil
}

// path maps a key to its file. The sanitized fragment keeps entries human
// inspectable while the hash suffix guarantees uniqueness.
func (f *File) path(key string) string {
	safe := unsafeKeyChars.ReplaceAllString(key, "_")
	if len(safe) > 100 {
		safe = safe[:100]
	}
	if safe == "" {
		safe = "entry"
	}
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])[:12]
	return filepath.Join(f.dir, fmt.Sprintf("%s_%s.json", safe, digest))
}

// Get implements Backend with lazy expiry on read.
func (f *File) Get(key string) ([]byte, bool, error) {
	path := f.path(key)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache file %s: %w", path, err)
	}
	var payload filePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false, fmt.Errorf("decode cache file %s: %w", path, err)
	}
	if payload.ExpiresAt != nil && *payload.ExpiresAt < f.now().Unix() {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return payload.Value, true, nil
}

// Set implements Backend. The value must be valid JSON since entries embed it
// verbatim in the payload document.
func (f *File) Set(key string, value []byte, ttl time.Duration) error {
	payload := filePayload{Value: json.RawMessage(value)}
	if ttl > 0 {
		expires := f.now().Add(ttl).Unix()
		payload.ExpiresAt = &expires
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	path := f.path(key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache file %s: %w", path, err)
	}
	return nil
}
