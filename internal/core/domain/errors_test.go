package domain_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zel/internal/core/domain"
)

func TestRepoError_Unwrap(t *testing.T) {
	err := domain.NewRepoError(domain.ErrStorage, "owner/repo", fs.ErrPermission)

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NotErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "owner/repo")
}

func TestRepoError_WrappedByCaller(t *testing.T) {
	err := fmt.Errorf("outer: %w", domain.NewRepoError(domain.ErrManifestNotFound, "owner/repo", nil))

	var repoErr *domain.RepoError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "owner/repo", repoErr.Repo)
	assert.ErrorIs(t, err, domain.ErrManifestNotFound)
}

func TestValidationError(t *testing.T) {
	err := &domain.ValidationError{Invalid: []domain.ResolutionRecord{
		{RepoName: "owner/a"},
		{RepoName: "owner/b"},
	}}

	assert.ErrorIs(t, err, domain.ErrValidationFailed)
	assert.Contains(t, err.Error(), "owner/a, owner/b")
	assert.Equal(t, []string{"owner/a", "owner/b"}, domain.InvalidRepos(errors.Join(errors.New("ctx"), err)))
	assert.Nil(t, domain.InvalidRepos(errors.New("other")))
}

func TestCacheEntry_Expired(t *testing.T) {
	written := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := domain.CacheEntry{WrittenAt: written, MaxAge: time.Hour}

	assert.False(t, entry.Expired(written.Add(59*time.Minute)))
	assert.True(t, entry.Expired(written.Add(time.Hour)))
	assert.True(t, entry.Expired(written.Add(2*time.Hour)))
}
