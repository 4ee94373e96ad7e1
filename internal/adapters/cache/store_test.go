package cache_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zel/internal/adapters/cache"
	"go.trai.ch/zel/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestStore_SetAndGet(t *testing.T) {
	opener := cache.NewOpener(t.TempDir())

	store, err := opener.Open("owner/repo")
	require.NoError(t, err)

	has, err := store.Has(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.False(t, has)

	got, err := store.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.Nil(t, got)

	want := domain.Manifest{Files: []string{"a"}, Dependencies: []string{"owner/dep"}}
	require.NoError(t, store.Set(domain.ConfigCacheKey, want, time.Hour))

	has, err = store.Has(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.True(t, has)

	got, err = store.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestStore_Expiry(t *testing.T) {
	clock := newClock()
	opener := cache.NewOpener(t.TempDir(), cache.WithClock(clock.Now))

	store, err := opener.Open("owner/repo")
	require.NoError(t, err)

	expired, err := store.IsExpired(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.True(t, expired, "absent keys are expired")

	require.NoError(t, store.Set(domain.ConfigCacheKey, domain.Manifest{}, time.Hour))

	clock.Advance(59 * time.Minute)
	expired, err = store.IsExpired(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.False(t, expired)

	clock.Advance(time.Minute)
	expired, err = store.IsExpired(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.True(t, expired)

	// Get does not enforce freshness.
	got, err := store.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestStore_Persistence(t *testing.T) {
	root := t.TempDir()

	store1, err := cache.NewOpener(root).Open("owner/repo")
	require.NoError(t, err)
	require.NoError(t, store1.Set(domain.ConfigCacheKey, domain.Manifest{Files: []string{"x"}}, time.Hour))

	assert.FileExists(t, filepath.Join(root, "owner", "repo", domain.CacheEntryFileName))

	store2, err := cache.NewOpener(root).Open("owner/repo")
	require.NoError(t, err)

	got, err := store2.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"x"}, got.Files)

	expired, err := store2.IsExpired(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestStore_NamespacesAreIsolated(t *testing.T) {
	opener := cache.NewOpener(t.TempDir())

	a, err := opener.Open("owner/a")
	require.NoError(t, err)
	b, err := opener.Open("owner/b")
	require.NoError(t, err)

	require.NoError(t, a.Set(domain.ConfigCacheKey, domain.Manifest{Files: []string{"a"}}, time.Hour))

	got, err := b.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ChecksumMismatch(t *testing.T) {
	root := t.TempDir()
	store, err := cache.NewOpener(root).Open("owner/repo")
	require.NoError(t, err)
	require.NoError(t, store.Set(domain.ConfigCacheKey, domain.Manifest{Files: []string{"original"}}, time.Hour))

	path := filepath.Join(root, "owner", "repo", domain.CacheEntryFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), "original", "tampered", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), domain.FilePerm))

	reopened, err := cache.NewOpener(root).Open("owner/repo")
	require.NoError(t, err)

	_, err = reopened.Get(domain.ConfigCacheKey)
	require.ErrorIs(t, err, domain.ErrStorage)

	// Writing the key again heals the entry.
	require.NoError(t, reopened.Set(domain.ConfigCacheKey, domain.Manifest{Files: []string{"fresh"}}, time.Hour))
	got, err := reopened.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, got.Files)
}

func TestStore_UnreadableFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "owner", "repo")
	require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.CacheEntryFileName), []byte("{not json"), domain.FilePerm))

	store, err := cache.NewOpener(root).Open("owner/repo")
	require.NoError(t, err)

	_, err = store.Has(domain.ConfigCacheKey)
	require.ErrorIs(t, err, domain.ErrStorage)

	expired, err := store.IsExpired(domain.ConfigCacheKey)
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.True(t, expired)
}

func TestStore_FailedWriteKeepsPreviousState(t *testing.T) {
	root := t.TempDir()
	store, err := cache.NewOpener(root).Open("owner/repo")
	require.NoError(t, err)

	// The namespace directory cannot be created below a regular file.
	require.NoError(t, os.WriteFile(filepath.Join(root, "owner"), []byte("blocker"), domain.FilePerm))

	err = store.Set(domain.ConfigCacheKey, domain.Manifest{Files: []string{"Makefile"}}, time.Hour)
	require.ErrorIs(t, err, domain.ErrStorage)

	has, err := store.Has(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.False(t, has)

	got, err := store.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOpener_InvalidRepo(t *testing.T) {
	opener := cache.NewOpener(t.TempDir())

	_, err := opener.Open("not-a-repo")
	require.ErrorIs(t, err, domain.ErrInvalidRepoName)

	err = opener.Remove("a/b/c")
	require.ErrorIs(t, err, domain.ErrInvalidRepoName)
}

func TestOpener_RemoveAndPurge(t *testing.T) {
	root := t.TempDir()
	opener := cache.NewOpener(root)

	for _, repo := range []string{"owner/a", "owner/b"} {
		store, err := opener.Open(repo)
		require.NoError(t, err)
		require.NoError(t, store.Set(domain.ConfigCacheKey, domain.Manifest{}, time.Hour))
	}

	require.NoError(t, opener.Remove("owner/a"))
	assert.NoDirExists(t, filepath.Join(root, "owner", "a"))
	assert.DirExists(t, filepath.Join(root, "owner", "b"))

	store, err := opener.Open("owner/a")
	require.NoError(t, err)
	has, err := store.Has(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, opener.Purge())
	assert.NoDirExists(t, root)
}

func TestStore_ConcurrentSet(t *testing.T) {
	opener := cache.NewOpener(t.TempDir())

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store, err := opener.Open("owner/repo")
			if err != nil {
				t.Error(err)
				return
			}
			if err := store.Set(domain.ConfigCacheKey, domain.Manifest{Files: []string{string(rune('a' + i))}}, time.Hour); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	store, err := cache.NewOpener(opener.Root()).Open("owner/repo")
	require.NoError(t, err)
	got, err := store.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Files, 1)
}
