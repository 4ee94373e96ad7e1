package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
)

// Option configures an Opener.
type Option func(*Opener)

// WithClock replaces the time source used to stamp and expire entries.
func WithClock(now func() time.Time) Option {
	return func(o *Opener) {
		o.now = now
	}
}

// Opener implements ports.CacheOpener on a directory tree of the form <root>/<owner>/<name>.
type Opener struct {
	root string
	now  func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
}

// NewOpener creates an Opener rooted at root.
func NewOpener(root string, opts ...Option) *Opener {
	o := &Opener{
		root:   filepath.Clean(root),
		now:    time.Now,
		stores: make(map[string]*Store),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Root returns the cache root directory.
func (o *Opener) Root() string {
	return o.root
}

// Open returns the namespace of repo. Repeated calls share one Store.
func (o *Opener) Open(repo string) (ports.CacheStore, error) {
	dir, err := o.namespaceDir(repo)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.stores[repo]; ok {
		return s, nil
	}
	s := newStore(repo, dir, o.now)
	o.stores[repo] = s
	return s, nil
}

// Remove deletes the namespace of repo.
func (o *Opener) Remove(repo string) error {
	dir, err := o.namespaceDir(repo)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.stores, repo)
	if err := os.RemoveAll(dir); err != nil {
		return domain.NewRepoError(domain.ErrStorage, repo, zerr.Wrap(err, "failed to remove cache namespace"))
	}
	return nil
}

// Purge deletes every namespace below the root.
func (o *Opener) Purge() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stores = make(map[string]*Store)
	if err := os.RemoveAll(o.root); err != nil {
		return errors.Join(domain.ErrStorage, zerr.With(zerr.Wrap(err, "failed to purge cache"), "path", o.root))
	}
	return nil
}

func (o *Opener) namespaceDir(repo string) (string, error) {
	owner, name, err := domain.SplitRepoName(repo)
	if err != nil {
		return "", err
	}
	return filepath.Join(o.root, owner, name), nil
}
