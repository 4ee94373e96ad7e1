// Package config loads user settings and the local manifest.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	zelfs "go.trai.ch/zel/internal/adapters/fs" //nolint:depguard // Shared atomic write helper
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the settings file.
const (
	EnvToken     = "ZEL_TOKEN"
	EnvCacheDir  = "ZEL_CACHE_DIR"
	EnvCacheTTL  = "ZEL_CACHE_TTL"
	EnvAPIURL    = "ZEL_API_URL"
	EnvRawURL    = "ZEL_RAW_URL"
	EnvBranch    = "ZEL_BRANCH"
	EnvSource    = "ZEL_SOURCE"
	EnvSourceDir = "ZEL_SOURCE_DIR"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

// SettingsStore implements ports.SettingsStore on a YAML file.
type SettingsStore struct {
	path string
}

// NewSettingsStore creates a SettingsStore backed by the file at path.
func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: filepath.Clean(path)}
}

// Path returns the settings file location.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads the settings file, if present, and applies environment overrides.
func (s *SettingsStore) Load() (domain.Settings, error) {
	rc, err := s.read()
	if err != nil {
		return domain.Settings{}, err
	}

	applyEnv(&rc)

	return s.toDomain(rc)
}

// SaveToken stores token in the settings file, keeping the other settings.
func (s *SettingsStore) SaveToken(token domain.Token) error {
	rc, err := s.read()
	if err != nil {
		return err
	}
	rc.Token = string(token)

	data, err := yaml.Marshal(&rc)
	if err != nil {
		return errors.Join(domain.ErrSettingsWrite, zerr.Wrap(err, "failed to marshal settings"))
	}

	if err := zelfs.WriteFileAtomic(s.path, data, domain.PrivateFilePerm); err != nil {
		return errors.Join(domain.ErrSettingsWrite, zerr.With(zerr.Wrap(err, "failed to write settings"), "path", s.path))
	}
	return nil
}

func (s *SettingsStore) read() (RCFile, error) {
	var rc RCFile

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rc, nil
		}
		return rc, errors.Join(domain.ErrSettingsRead, zerr.With(zerr.Wrap(err, "failed to read settings"), "path", s.path))
	}

	if err := yaml.Unmarshal(data, &rc); err != nil {
		return rc, errors.Join(domain.ErrSettingsParse, zerr.With(zerr.Wrap(err, "failed to parse settings"), "path", s.path))
	}
	return rc, nil
}

func applyEnv(rc *RCFile) {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	override(&rc.Token, EnvToken)
	override(&rc.Cache.Dir, EnvCacheDir)
	override(&rc.Cache.TTL, EnvCacheTTL)
	override(&rc.API.URL, EnvAPIURL)
	override(&rc.API.RawURL, EnvRawURL)
	override(&rc.Branch, EnvBranch)
	override(&rc.Source.Kind, EnvSource)
	override(&rc.Source.Dir, EnvSourceDir)
}

func (s *SettingsStore) toDomain(rc RCFile) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	settings.Token = domain.Token(rc.Token)
	if rc.Cache.Dir != "" {
		settings.CacheDir = rc.Cache.Dir
	}
	if rc.Cache.TTL != "" {
		ttl, err := time.ParseDuration(rc.Cache.TTL)
		if err != nil || ttl <= 0 {
			return domain.Settings{}, errors.Join(
				domain.ErrInvalidOption,
				zerr.With(zerr.New("cache ttl must be a positive duration"), "value", rc.Cache.TTL),
			)
		}
		settings.CacheTTL = ttl
	}
	if rc.API.URL != "" {
		settings.APIBaseURL = rc.API.URL
	}
	if rc.API.RawURL != "" {
		settings.RawBaseURL = rc.API.RawURL
	}
	if rc.Branch != "" {
		settings.Branch = rc.Branch
	}
	if rc.Source.Kind != "" {
		kind := domain.SourceKind(rc.Source.Kind)
		if !kind.Known() {
			return domain.Settings{}, errors.Join(
				domain.ErrInvalidOption,
				zerr.With(zerr.New("unknown source kind"), "value", rc.Source.Kind),
			)
		}
		settings.Source = kind
	}
	settings.SourceDir = rc.Source.Dir

	return settings, nil
}
