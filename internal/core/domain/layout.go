package domain

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// ManifestFileName is the name of the manifest file in every repository.
	ManifestFileName = ".zel"

	// HomeDirName is the name of the per-user state directory.
	HomeDirName = ".zel"

	// CacheDirName is the name of the cache directory below the state directory.
	CacheDirName = "cache"

	// RCFileName is the name of the settings file below the state directory.
	RCFileName = ".zelrc"

	// CacheEntryFileName is the file holding the entries of one cache namespace.
	CacheEntryFileName = ".zel.json"

	// ConfigCacheKey is the cache key under which a repository's manifest is stored.
	ConfigCacheKey = "config"

	// DefaultCacheTTL is how long a cached manifest stays fresh.
	DefaultCacheTTL = time.Hour

	// DefaultBranch is the branch raw files are downloaded from.
	DefaultBranch = "master"

	// DefaultAPIBaseURL is the GitHub REST endpoint.
	DefaultAPIBaseURL = "https://api.github.com/"

	// DefaultRawBaseURL is the host serving raw repository files.
	DefaultRawBaseURL = "https://raw.githubusercontent.com/"

	// UserAgent is sent with every outgoing request.
	UserAgent = "zel"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultHomePath returns ~/.zel, or .zel when the home directory is unknown.
func DefaultHomePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return HomeDirName
	}
	return filepath.Join(home, HomeDirName)
}

// DefaultCachePath returns the root of the manifest cache.
// It joins ~/.zel and cache.
func DefaultCachePath() string {
	return filepath.Join(DefaultHomePath(), CacheDirName)
}

// DefaultRCPath returns the path of the settings file.
func DefaultRCPath() string {
	return filepath.Join(DefaultHomePath(), RCFileName)
}
