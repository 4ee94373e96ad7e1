package ports

import (
	"context"

	"go.trai.ch/zel/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=config_source.go -destination=mocks/mock_config_source.go -package=mocks

// ConfigSource fetches the manifest of a single repository.
type ConfigSource interface {
	// FetchConfig returns the manifest of repo. Failures are reported as
	// *domain.RepoError values classified by the domain sentinels.
	FetchConfig(ctx context.Context, repo string) (*domain.Manifest, error)
}

// SourceProvider builds the ConfigSource selected by a SourceConfig.
type SourceProvider interface {
	Source(cfg domain.SourceConfig) (ConfigSource, error)
}
