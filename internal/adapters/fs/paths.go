package fs

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

var errUnsafePath = zerr.New("unsafe path")

// ResolveTarget joins a slash separated relative path onto root and rejects
// paths that are absolute, empty, or resolve outside root.
func ResolveTarget(root, rel string) (string, error) {
	if rel == "" || strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", zerr.With(errUnsafePath, "path", rel)
	}

	cleanRoot := filepath.Clean(root)
	joined := filepath.Join(cleanRoot, filepath.FromSlash(rel))

	within, err := filepath.Rel(cleanRoot, joined)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to relate path to root"), "path", rel)
	}
	if within == "." || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", zerr.With(errUnsafePath, "path", rel)
	}

	return joined, nil
}
