package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ManifestReader = (*ManifestReader)(nil)

// ManifestReader implements ports.ManifestReader for the .zel file of a directory.
type ManifestReader struct{}

// NewManifestReader creates a new ManifestReader.
func NewManifestReader() *ManifestReader {
	return &ManifestReader{}
}

// Dependencies returns the dependencies declared in dir/.zel.
func (r *ManifestReader) Dependencies(dir string) ([]string, error) {
	path := filepath.Join(dir, domain.ManifestFileName)

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrLocalManifestMissing
		}
		return nil, errors.Join(domain.ErrLocalManifestParse, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path))
	}

	var manifest LocalManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Join(domain.ErrLocalManifestParse, zerr.With(zerr.Wrap(err, "failed to parse manifest"), "path", path))
	}

	return manifest.Dependencies, nil
}
