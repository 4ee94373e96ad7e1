// Package cache implements the per-repository manifest cache.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	zelfs "go.trai.ch/zel/internal/adapters/fs" //nolint:depguard // Shared atomic write helper
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.CacheStore  = (*Store)(nil)
	_ ports.CacheOpener = (*Opener)(nil)

	errChecksumMismatch = zerr.New("cache entry checksum mismatch")
)

// Store implements ports.CacheStore using one JSON file per repository namespace.
type Store struct {
	repo string
	path string
	now  func() time.Time

	mu      sync.RWMutex
	loadErr error
	entries map[string]domain.CacheEntry
	corrupt map[string]struct{}
}

func newStore(repo, dir string, now func() time.Time) *Store {
	s := &Store{
		repo:    repo,
		path:    filepath.Join(dir, domain.CacheEntryFileName),
		now:     now,
		entries: make(map[string]domain.CacheEntry),
		corrupt: make(map[string]struct{}),
	}
	s.loadErr = s.load()
	return s
}

func (s *Store) load() error {
	//nolint:gosec // Path is built from a validated repository name
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return domain.NewRepoError(domain.ErrStorage, s.repo, zerr.Wrap(err, "failed to read cache file"))
	}

	if len(data) == 0 {
		return nil
	}

	var entries map[string]domain.CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return domain.NewRepoError(domain.ErrStorage, s.repo, zerr.Wrap(err, "failed to unmarshal cache file"))
	}

	for key, entry := range entries {
		sum, err := checksum(entry.Value)
		if err != nil || sum != entry.Checksum {
			s.corrupt[key] = struct{}{}
			continue
		}
		s.entries[key] = entry
	}
	return nil
}

func (s *Store) save(entries map[string]domain.CacheEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return domain.NewRepoError(domain.ErrStorage, s.repo, zerr.Wrap(err, "failed to marshal cache file"))
	}

	if err := zelfs.WriteFileAtomic(s.path, data, domain.FilePerm); err != nil {
		return domain.NewRepoError(domain.ErrStorage, s.repo, zerr.Wrap(err, "failed to write cache file"))
	}
	return nil
}

// check reports the load failure or the corruption of key.
// Callers must hold s.mu.
func (s *Store) check(key string) error {
	if s.loadErr != nil {
		return s.loadErr
	}
	if _, bad := s.corrupt[key]; bad {
		return domain.NewRepoError(domain.ErrStorage, s.repo, zerr.With(errChecksumMismatch, "key", key))
	}
	return nil
}

// Has reports whether key has a stored entry.
func (s *Store) Has(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.loadErr != nil {
		return false, s.loadErr
	}
	if _, bad := s.corrupt[key]; bad {
		return true, nil
	}
	_, ok := s.entries[key]
	return ok, nil
}

// IsExpired reports whether key is absent or older than its max age.
func (s *Store) IsExpired(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(key); err != nil {
		return true, err
	}
	entry, ok := s.entries[key]
	if !ok {
		return true, nil
	}
	return entry.Expired(s.now()), nil
}

// Get retrieves the value stored under key.
// Returns nil, nil if not found.
func (s *Store) Get(key string) (*domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(key); err != nil {
		return nil, err
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	value := entry.Value
	return &value, nil
}

// Set stores value under key and persists the namespace.
func (s *Store) Set(key string, value domain.Manifest, maxAge time.Duration) error {
	sum, err := checksum(value)
	if err != nil {
		return domain.NewRepoError(domain.ErrStorage, s.repo, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A file that failed to load is replaced wholesale.
	entries := make(map[string]domain.CacheEntry, len(s.entries)+1)
	if s.loadErr == nil {
		maps.Copy(entries, s.entries)
	}
	entries[key] = domain.CacheEntry{
		Value:     value,
		WrittenAt: s.now(),
		MaxAge:    maxAge,
		Checksum:  sum,
	}

	// Memory only changes once the namespace is on disk.
	if err := s.save(entries); err != nil {
		return err
	}

	if s.loadErr != nil {
		s.corrupt = make(map[string]struct{})
		s.loadErr = nil
	}
	delete(s.corrupt, key)
	s.entries = entries
	return nil
}

func checksum(value domain.Manifest) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", zerr.Wrap(err, "failed to marshal cache value")
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
