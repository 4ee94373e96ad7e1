package source

import (
	"context"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zerr"
)

// NotImplemented is the placeholder for declared but unsupported hosts.
// Every fetch fails with domain.ErrNotImplemented.
type NotImplemented struct {
	Kind domain.SourceKind
}

// FetchConfig always fails.
func (n NotImplemented) FetchConfig(_ context.Context, repo string) (*domain.Manifest, error) {
	return nil, &domain.RepoError{
		Repo:  repo,
		Kind:  domain.ErrNotImplemented,
		Cause: zerr.With(zerr.New("source not implemented"), "source", string(n.Kind)),
	}
}
