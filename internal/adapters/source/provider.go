// Package source selects and builds configuration sources.
package source

import (
	"errors"

	"go.trai.ch/zel/internal/adapters/github"
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.SourceProvider = (*Provider)(nil)

	errMissingDir = zerr.New("directory source requires a root directory")
)

// Provider implements ports.SourceProvider.
type Provider struct {
	cache     ports.CacheOpener
	logger    ports.Logger
	telemetry ports.Telemetry
}

// NewProvider creates a Provider. The cache is shared by all GitHub sources it builds.
func NewProvider(cache ports.CacheOpener, logger ports.Logger, telemetry ports.Telemetry) *Provider {
	return &Provider{
		cache:     cache,
		logger:    logger,
		telemetry: telemetry,
	}
}

// Source builds the ConfigSource for cfg.Kind.
func (p *Provider) Source(cfg domain.SourceConfig) (ports.ConfigSource, error) {
	switch cfg.Kind {
	case domain.SourceGitHub, "":
		var opts []github.Option
		if p.telemetry != nil {
			opts = append(opts, github.WithTelemetry(p.telemetry))
		}
		return github.New(cfg, p.cache, p.logger, opts...)
	case domain.SourceDirectory:
		if cfg.Dir == "" {
			return nil, errors.Join(domain.ErrInvalidOption, errMissingDir)
		}
		return NewDirectory(cfg.Dir), nil
	case domain.SourceGitLab, domain.SourceBitbucket:
		return NotImplemented{Kind: cfg.Kind}, nil
	default:
		return nil, errors.Join(
			domain.ErrInvalidOption,
			zerr.With(zerr.New("unknown source kind"), "value", string(cfg.Kind)),
		)
	}
}
