package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
)

var _ ports.ConfigSource = (*Directory)(nil)

// Directory serves manifests stored as <root>/<owner>/<name>/.zel files.
type Directory struct {
	root string
}

// NewDirectory creates a Directory source rooted at root.
func NewDirectory(root string) *Directory {
	return &Directory{root: root}
}

// FetchConfig reads the manifest of repo from disk.
func (d *Directory) FetchConfig(ctx context.Context, repo string) (*domain.Manifest, error) {
	owner, name, err := domain.SplitRepoName(repo)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrTransport, Cause: err}
	}

	path := filepath.Join(d.root, owner, name, domain.ManifestFileName)
	//nolint:gosec // path is built from a validated owner/name pair
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrManifestNotFound, Location: path}
		}
		return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrStorage, Location: path, Cause: err}
	}

	return domain.ParseManifest(repo, path, data)
}
