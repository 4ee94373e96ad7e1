package domain

import "time"

// Token is an API credential. It is masked whenever it reaches a log handler.
type Token string

// SourceKind selects the configuration source implementation.
type SourceKind string

const (
	// SourceGitHub fetches manifests from the GitHub contents API with caching.
	SourceGitHub SourceKind = "github"
	// SourceDirectory reads manifests from a local directory tree.
	SourceDirectory SourceKind = "dir"
	// SourceGitLab is declared but not supported.
	SourceGitLab SourceKind = "gitlab"
	// SourceBitbucket is declared but not supported.
	SourceBitbucket SourceKind = "bitbucket"
)

// Settings is the process-wide configuration, read once at start-up.
type Settings struct {
	Token      Token `masq:"secret"`
	CacheDir   string
	CacheTTL   time.Duration
	APIBaseURL string
	RawBaseURL string
	Branch     string
	Source     SourceKind
	SourceDir  string
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		CacheDir:   DefaultCachePath(),
		CacheTTL:   DefaultCacheTTL,
		APIBaseURL: DefaultAPIBaseURL,
		RawBaseURL: DefaultRawBaseURL,
		Branch:     DefaultBranch,
		Source:     SourceGitHub,
	}
}

// SourceConfig is the per-invocation configuration of a configuration source.
type SourceConfig struct {
	Kind       SourceKind
	Dir        string
	APIBaseURL string
	Token      Token `masq:"secret"`
	MaxAge     time.Duration
	Refresh    bool
}

// Known reports whether k names a declared source kind.
func (k SourceKind) Known() bool {
	switch k {
	case SourceGitHub, SourceDirectory, SourceGitLab, SourceBitbucket:
		return true
	default:
		return false
	}
}

// SourceConfig derives the source configuration from the settings.
func (s Settings) SourceConfig() SourceConfig {
	return SourceConfig{
		Kind:       s.Source,
		Dir:        s.SourceDir,
		APIBaseURL: s.APIBaseURL,
		Token:      s.Token,
		MaxAge:     s.CacheTTL,
	}
}
