// Package resolver walks the dependency graph declared by repository manifests.
package resolver

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Resolver fetches the manifests of a set of root repositories and, recursively,
// of every repository they depend on.
type Resolver struct {
	source      ports.ConfigSource
	telemetry   ports.Telemetry
	concurrency int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency bounds the number of simultaneous fetches.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTelemetry records one vertex per Validate call.
func WithTelemetry(t ports.Telemetry) Option {
	return func(r *Resolver) {
		r.telemetry = t
	}
}

// New creates a Resolver backed by src.
func New(src ports.ConfigSource, opts ...Option) *Resolver {
	r := &Resolver{
		source:      src,
		concurrency: runtime.NumCPU() * 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Validate resolves repos and their transitive dependencies.
//
// Fetch failures never abort the walk; they are collected as invalid records.
// Once every fetch has settled, one event per valid record and then one per
// invalid record is sent on events, which is closed before Validate returns.
// events may be nil.
//
// The run succeeds when at least as many records are valid as roots were
// requested. Otherwise the resolution is returned together with a
// *domain.ValidationError.
func (r *Resolver) Validate(ctx context.Context, repos []string, events chan<- domain.Event) (res *domain.Resolution, err error) {
	if events != nil {
		defer close(events)
	}

	if len(repos) == 0 {
		return nil, domain.ErrNoRepositories
	}
	for _, repo := range repos {
		if err := domain.ValidateRepoName(repo); err != nil {
			return nil, err
		}
	}

	if r.telemetry != nil {
		var vertex ports.Vertex
		ctx, vertex = r.telemetry.Record(ctx, "resolve")
		defer func() {
			vertex.Complete(err)
		}()
	}

	state := r.newRunState()

	g, gctx := errgroup.WithContext(ctx)
	for _, repo := range repos {
		g.Go(func() error {
			return state.expand(gctx, repo, nil)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res = state.resolution()

	if err := emit(ctx, events, res); err != nil {
		return nil, err
	}

	if len(res.Valid) < len(repos) {
		return res, &domain.ValidationError{Invalid: slices.Clone(res.Invalid)}
	}
	return res, nil
}

type runState struct {
	r   *Resolver
	sem *semaphore.Weighted

	mu      sync.Mutex
	valid   []domain.ResolutionRecord
	invalid []domain.ResolutionRecord
	cycles  [][]string
}

func (r *Resolver) newRunState() *runState {
	return &runState{
		r:   r,
		sem: semaphore.NewWeighted(int64(r.concurrency)),
	}
}

// expand fetches repo and then its dependencies. path holds the ancestors of
// repo in the current walk. Only context errors are returned.
func (state *runState) expand(ctx context.Context, repo string, path []string) error {
	if slices.Contains(path, repo) {
		state.addCycle(append(slices.Clone(path), repo))
		return nil
	}
	path = append(slices.Clip(path), repo)

	if err := state.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	m, err := state.r.source.FetchConfig(ctx, repo)
	state.sem.Release(1)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		state.addInvalid(repo)
		return nil
	}
	if m == nil {
		m = &domain.Manifest{}
	}
	state.addValid(repo, m)

	if len(m.Dependencies) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, dep := range m.Dependencies {
		g.Go(func() error {
			return state.expand(gctx, dep, path)
		})
	}
	return g.Wait()
}

func (state *runState) addValid(repo string, m *domain.Manifest) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.valid = append(state.valid, domain.ResolutionRecord{RepoName: repo, Manifest: m})
}

func (state *runState) addInvalid(repo string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.invalid = append(state.invalid, domain.ResolutionRecord{RepoName: repo})
}

func (state *runState) addCycle(path []string) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.cycles = append(state.cycles, path)
}

func (state *runState) resolution() *domain.Resolution {
	state.mu.Lock()
	defer state.mu.Unlock()
	return &domain.Resolution{
		Valid:   slices.Clone(state.valid),
		Invalid: slices.Clone(state.invalid),
		Cycles:  slices.Clone(state.cycles),
	}
}

func emit(ctx context.Context, events chan<- domain.Event, res *domain.Resolution) error {
	if events == nil {
		return nil
	}
	send := func(kind domain.EventKind, rec domain.ResolutionRecord) error {
		select {
		case events <- domain.Event{Kind: kind, Record: rec}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	for _, rec := range res.Valid {
		if err := send(domain.EventValid, rec); err != nil {
			return err
		}
	}
	for _, rec := range res.Invalid {
		if err := send(domain.EventInvalid, rec); err != nil {
			return err
		}
	}
	return nil
}
