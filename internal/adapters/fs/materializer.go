// Package fs implements file materialization onto the local filesystem.
package fs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"time"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const httpClientTimeout = 30 * time.Second

var errUnexpectedStatus = zerr.New("unexpected response status")

var _ ports.Materializer = (*Materializer)(nil)

// HTTPClient is the subset of *http.Client used for downloads.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Materializer downloads the files declared by a manifest into a target directory.
type Materializer struct {
	client      HTTPClient
	telemetry   ports.Telemetry
	concurrency int
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithHTTPClient replaces the HTTP client used for downloads.
func WithHTTPClient(c HTTPClient) MaterializerOption {
	return func(m *Materializer) {
		m.client = c
	}
}

// WithTelemetry records one vertex per downloaded file.
func WithTelemetry(t ports.Telemetry) MaterializerOption {
	return func(m *Materializer) {
		m.telemetry = t
	}
}

// WithConcurrency bounds the number of simultaneous downloads.
func WithConcurrency(n int) MaterializerOption {
	return func(m *Materializer) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// NewMaterializer creates a new Materializer.
func NewMaterializer(opts ...MaterializerOption) *Materializer {
	m := &Materializer{
		client:      &http.Client{Timeout: httpClientTimeout},
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize downloads every file of rec and writes it below opts.TargetDir.
// Files whose content is already up to date are left untouched.
func (m *Materializer) Materialize(
	ctx context.Context,
	rec domain.ResolutionRecord,
	opts domain.MaterializeOptions,
) ([]domain.MaterializedFile, error) {
	if rec.Manifest == nil || len(rec.Manifest.Files) == 0 {
		return nil, nil
	}

	owner, name, err := domain.SplitRepoName(rec.RepoName)
	if err != nil {
		return nil, err
	}

	opts = withDefaults(opts)
	results := make([]domain.MaterializedFile, len(rec.Manifest.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, file := range rec.Manifest.Files {
		g.Go(func() error {
			status, err := m.materializeFile(gctx, rec.RepoName, owner, name, file, opts)
			if err != nil {
				return err
			}
			results[i] = domain.MaterializedFile{Repo: rec.RepoName, Path: file, Status: status}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func withDefaults(opts domain.MaterializeOptions) domain.MaterializeOptions {
	if opts.TargetDir == "" {
		opts.TargetDir = "."
	}
	if opts.Branch == "" {
		opts.Branch = domain.DefaultBranch
	}
	if opts.RawBaseURL == "" {
		opts.RawBaseURL = domain.DefaultRawBaseURL
	}
	return opts
}

func (m *Materializer) materializeFile(
	ctx context.Context,
	repo, owner, name, file string,
	opts domain.MaterializeOptions,
) (status domain.FileStatus, err error) {
	location := fmt.Sprintf("%s/%s/%s", repo, opts.Branch, file)

	dest, err := ResolveTarget(opts.TargetDir, file)
	if err != nil {
		return "", &domain.RepoError{Repo: repo, Kind: domain.ErrPathOutsideTarget, Location: file, Cause: err}
	}

	if m.telemetry != nil {
		var vertex ports.Vertex
		ctx, vertex = m.telemetry.Record(ctx, "download "+location)
		defer func() {
			if status == domain.FileUnchanged {
				vertex.Cached()
			}
			vertex.Complete(err)
		}()
	}

	data, err := m.download(ctx, owner, name, file, opts)
	if err != nil {
		return "", &domain.RepoError{Repo: repo, Kind: domain.ErrDownloadFailed, Location: location, Cause: err}
	}
	if v, ok := ports.VertexFromContext(ctx); ok {
		v.Log(domain.LogLevelDebug, fmt.Sprintf("%d bytes", len(data)))
	}

	existing, ok, err := ComputeFileHash(dest)
	if err != nil {
		return "", &domain.RepoError{Repo: repo, Kind: domain.ErrWriteFailed, Location: dest, Cause: err}
	}
	if ok && existing == ComputeHash(data) {
		return domain.FileUnchanged, nil
	}

	if err := WriteFileAtomic(dest, data, domain.FilePerm); err != nil {
		return "", &domain.RepoError{Repo: repo, Kind: domain.ErrWriteFailed, Location: dest, Cause: err}
	}
	return domain.FileWritten, nil
}

func (m *Materializer) download(
	ctx context.Context,
	owner, name, file string,
	opts domain.MaterializeOptions,
) ([]byte, error) {
	rawURL, err := url.JoinPath(opts.RawBaseURL, owner, name, opts.Branch, file)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", domain.UserAgent)
	if opts.Token != "" {
		req.Header.Set("Authorization", "token "+string(opts.Token))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, zerr.With(errUnexpectedStatus, "status_code", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
