// Package github implements the remote configuration source backed by the
// GitHub contents API and the per-repository cache.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/go-github/v53/github"
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const httpClientTimeout = 30 * time.Second

var (
	_ ports.ConfigSource = (*Source)(nil)

	errUnsupportedEncoding = zerr.New("unsupported content encoding")
)

// Source implements ports.ConfigSource. It serves manifests from the cache while
// they are fresh and falls back to the contents API otherwise.
type Source struct {
	client    *github.Client
	cache     ports.CacheOpener
	logger    ports.Logger
	telemetry ports.Telemetry
	maxAge    time.Duration
	refresh   bool
	group     singleflight.Group
}

// Option configures a Source.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	telemetry ports.Telemetry
}

// WithTransport replaces the HTTP transport used to reach the API.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithTelemetry records one vertex per fetch.
func WithTelemetry(t ports.Telemetry) Option {
	return func(o *options) {
		o.telemetry = t
	}
}

// New creates a Source from cfg. cache may be nil to disable caching.
func New(cfg domain.SourceConfig, cache ports.CacheOpener, logger ports.Logger, opts ...Option) (*Source, error) {
	o := options{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if cfg.Token != "" {
		transport = &tokenTransport{token: cfg.Token, base: transport}
	}

	client := github.NewClient(&http.Client{
		Timeout:   httpClientTimeout,
		Transport: transport,
	})
	client.UserAgent = domain.UserAgent

	if cfg.APIBaseURL != "" {
		base := cfg.APIBaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, errors.Join(domain.ErrInvalidOption, zerr.With(zerr.Wrap(err, "invalid api url"), "value", cfg.APIBaseURL))
		}
		client.BaseURL = u
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = domain.DefaultCacheTTL
	}

	return &Source{
		client:    client,
		cache:     cache,
		logger:    logger,
		telemetry: o.telemetry,
		maxAge:    maxAge,
		refresh:   cfg.Refresh,
	}, nil
}

// FetchConfig returns the manifest of repo.
func (s *Source) FetchConfig(ctx context.Context, repo string) (m *domain.Manifest, err error) {
	owner, name, err := domain.SplitRepoName(repo)
	if err != nil {
		return nil, err
	}

	fromCache := false
	if s.telemetry != nil {
		var vertex ports.Vertex
		ctx, vertex = s.telemetry.Record(ctx, "fetch "+repo)
		defer func() {
			if fromCache {
				vertex.Cached()
			}
			vertex.Complete(err)
		}()
	}

	store := s.openCache(ctx, repo)
	if store != nil && !s.refresh {
		if hit, ok := s.fromCache(ctx, store, repo); ok {
			fromCache = true
			return hit, nil
		}
	}

	location := manifestLocation(owner, name)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrTransport, Location: location, Cause: ctxErr}
	}

	// The shared fetch outlives any single caller; each caller only stops waiting on its own context.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(repo, func() (any, error) {
		fetched, err := s.fetchRemote(flightCtx, owner, name, repo)
		if err != nil {
			return nil, err
		}
		if store != nil {
			if err := store.Set(domain.ConfigCacheKey, *fetched, s.maxAge); err != nil {
				s.warn(flightCtx, "failed to write manifest cache", repo, err)
			}
		}
		return fetched, nil
	})

	select {
	case <-ctx.Done():
		return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrTransport, Location: location, Cause: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneManifest(res.Val.(*domain.Manifest)), nil
	}
}

func (s *Source) openCache(ctx context.Context, repo string) ports.CacheStore {
	if s.cache == nil {
		return nil
	}
	store, err := s.cache.Open(repo)
	if err != nil {
		s.warn(ctx, "failed to open manifest cache", repo, err)
		return nil
	}
	return store
}

func (s *Source) fromCache(ctx context.Context, store ports.CacheStore, repo string) (*domain.Manifest, bool) {
	has, err := store.Has(domain.ConfigCacheKey)
	if err != nil {
		s.warn(ctx, "failed to read manifest cache", repo, err)
		return nil, false
	}
	if !has {
		return nil, false
	}

	expired, err := store.IsExpired(domain.ConfigCacheKey)
	if err != nil {
		s.warn(ctx, "failed to read manifest cache", repo, err)
		return nil, false
	}
	if expired {
		return nil, false
	}

	m, err := store.Get(domain.ConfigCacheKey)
	if err != nil {
		s.warn(ctx, "failed to read manifest cache", repo, err)
		return nil, false
	}
	if m == nil {
		return nil, false
	}

	s.logger.Debug("manifest served from cache", "repo", repo)
	return cloneManifest(m), true
}

// warn reports a cache failure on the logger and on the fetch vertex, if one is recording.
func (s *Source) warn(ctx context.Context, msg, repo string, err error) {
	s.logger.Warn(msg, "repo", repo, "error", err)
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelWarn, fmt.Sprintf("%s: %v", msg, err))
	}
}

func (s *Source) fetchRemote(ctx context.Context, owner, name, repo string) (*domain.Manifest, error) {
	location := manifestLocation(owner, name)

	fc, _, resp, err := s.client.Repositories.GetContents(ctx, owner, name, domain.ManifestFileName, nil)
	if err != nil {
		if isNotFound(err, resp) {
			return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrManifestNotFound, Location: location}
		}
		return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrTransport, Location: location, Cause: err}
	}

	// A directory named .zel or a response without a body is treated as missing.
	if fc == nil || fc.Content == nil {
		return nil, &domain.RepoError{Repo: repo, Kind: domain.ErrManifestNotFound, Location: location}
	}

	if enc := fc.GetEncoding(); enc != "" && enc != "base64" {
		return nil, &domain.RepoError{
			Repo:     repo,
			Kind:     domain.ErrManifestDecode,
			Location: location,
			Cause:    zerr.With(errUnsupportedEncoding, "encoding", enc),
		}
	}

	s.logger.Debug("manifest fetched", "repo", repo)
	return domain.DecodeManifest(repo, location, *fc.Content)
}

func manifestLocation(owner, name string) string {
	return fmt.Sprintf("repos/%s/%s/contents/%s", owner, name, domain.ManifestFileName)
}

func isNotFound(err error, resp *github.Response) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	return resp != nil && resp.Response != nil && resp.StatusCode == http.StatusNotFound
}

func cloneManifest(m *domain.Manifest) *domain.Manifest {
	return &domain.Manifest{
		Files:        slices.Clone(m.Files),
		Dependencies: slices.Clone(m.Dependencies),
	}
}
