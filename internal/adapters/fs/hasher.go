package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// ComputeFileHash computes the XXHash of a file's content.
// The second result is false when the file does not exist.
func ComputeFileHash(path string) (uint64, bool, error) {
	f, err := os.Open(path) //nolint:gosec // Path is resolved below the target directory
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, false, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), true, nil
}

// ComputeHash computes the XXHash of data.
func ComputeHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}
