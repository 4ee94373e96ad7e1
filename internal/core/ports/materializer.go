package ports

import (
	"context"

	"go.trai.ch/zel/internal/core/domain"
)

// Materializer writes the files declared by a resolved manifest to disk.
//
//go:generate go run go.uber.org/mock/mockgen -source=materializer.go -destination=mocks/mock_materializer.go -package=mocks
type Materializer interface {
	Materialize(
		ctx context.Context,
		rec domain.ResolutionRecord,
		opts domain.MaterializeOptions,
	) ([]domain.MaterializedFile, error)
}
