package ports

import (
	"time"

	"go.trai.ch/zel/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// CacheOpener hands out per-repository cache namespaces.
type CacheOpener interface {
	// Open returns the namespace of repo. Namespaces of different repositories never share state.
	Open(repo string) (CacheStore, error)
	// Remove deletes the namespace of repo.
	Remove(repo string) error
	// Purge deletes every namespace.
	Purge() error
}

// CacheStore is a key/value store with per-entry expiry, scoped to one repository.
type CacheStore interface {
	// Has reports whether key has a stored entry, fresh or not.
	Has(key string) (bool, error)
	// IsExpired reports whether key is absent or older than its max age.
	IsExpired(key string) (bool, error)
	// Get retrieves the value of key regardless of freshness.
	// Returns nil, nil if not found.
	Get(key string) (*domain.Manifest, error)
	// Set stores value under key, stamped with the current time.
	Set(key string, value domain.Manifest, maxAge time.Duration) error
}
