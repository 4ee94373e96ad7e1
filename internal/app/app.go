// Package app implements the application layer for zel.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zel/internal/engine/resolver"
	"go.trai.ch/zel/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	settings     domain.Settings
	store        ports.SettingsStore
	manifests    ports.ManifestReader
	resolvers    *resolver.Factory
	materializer ports.Materializer
	cache        ports.CacheOpener
	logger       ports.Logger
	telemetry    ports.Telemetry
	out          io.Writer
	workDir      string
}

// New creates a new App instance.
func New(
	settings domain.Settings,
	store ports.SettingsStore,
	manifests ports.ManifestReader,
	resolvers *resolver.Factory,
	materializer ports.Materializer,
	cache ports.CacheOpener,
	log ports.Logger,
	telemetry ports.Telemetry,
) *App {
	return &App{
		settings:     settings,
		store:        store,
		manifests:    manifests,
		resolvers:    resolvers,
		materializer: materializer,
		cache:        cache,
		logger:       log,
		telemetry:    telemetry,
		out:          os.Stdout,
	}
}

// WithOutput redirects result output, which defaults to stdout.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithWorkDir sets the directory whose .zel file supplies the default
// repositories. It defaults to the process working directory.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// SourceOptions are per-invocation overrides of the configured source.
type SourceOptions struct {
	Token     domain.Token `masq:"secret"`
	Refresh   bool
	Source    domain.SourceKind
	SourceDir string
}

// FetchOptions configuration for the Fetch method.
type FetchOptions struct {
	SourceOptions
	// Repo is the repository to fetch. The local .zel dependencies are used when empty.
	Repo string
	// TargetDir receives the files. Defaults to the working directory.
	TargetDir string
}

// ValidateOptions configuration for the Validate method.
type ValidateOptions struct {
	SourceOptions
	// Repos are the repositories to validate. The local .zel dependencies are used when empty.
	Repos []string
}

// Fetch resolves a repository closure and writes every declared file into the
// target directory. Invalid repositories are reported as they are found.
// A repository whose files fail to download does not stop the others; the
// failures are joined into the returned error.
func (a *App) Fetch(ctx context.Context, opts FetchOptions) ([]domain.MaterializedFile, error) {
	var repos []string
	if opts.Repo != "" {
		repos = []string{opts.Repo}
	}
	repos, err := a.roots(repos)
	if err != nil {
		return nil, err
	}

	printer := output.New(a.out)
	res, err := a.resolve(ctx, repos, opts.SourceOptions, func(ev domain.Event) {
		if ev.Kind == domain.EventInvalid {
			printer.Invalid(ev.Record.RepoName)
		}
	})
	if err != nil {
		return nil, err
	}
	a.reportCycles(printer, res)

	target := opts.TargetDir
	if target == "" {
		if target, err = a.dir(); err != nil {
			return nil, err
		}
	}

	mopts := domain.MaterializeOptions{
		TargetDir:  target,
		Branch:     a.settings.Branch,
		RawBaseURL: a.settings.RawBaseURL,
		Token:      a.token(opts.SourceOptions),
	}

	var (
		all  []domain.MaterializedFile
		errs []error
	)
	seen := make(map[string]struct{}, len(res.Valid))
	for _, rec := range res.Valid {
		if _, ok := seen[rec.RepoName]; ok {
			continue
		}
		seen[rec.RepoName] = struct{}{}

		if rec.Manifest == nil || len(rec.Manifest.Files) == 0 {
			printer.Message("No files declared: " + rec.RepoName)
			continue
		}

		files, err := a.materializer.Materialize(ctx, rec, mopts)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return all, ctxErr
			}
			errs = append(errs, zerr.With(zerr.Wrap(err, "failed to materialize files"), "repo", rec.RepoName))
			continue
		}
		if len(files) > 0 {
			printer.Downloaded(rec.RepoName, files)
		}
		all = append(all, files...)
	}

	return all, errors.Join(errs...)
}

// Validate resolves the given repositories, or the local dependencies, and
// prints one line per valid and invalid repository.
func (a *App) Validate(ctx context.Context, opts ValidateOptions) (*domain.Resolution, error) {
	repos, err := a.roots(opts.Repos)
	if err != nil {
		return nil, err
	}

	printer := output.New(a.out)
	res, err := a.resolve(ctx, repos, opts.SourceOptions, printer.Event)
	if res != nil {
		a.reportCycles(printer, res)
	}
	return res, err
}

// CleanCache removes the cached manifests of repos, or the whole cache when
// repos is empty.
func (a *App) CleanCache(_ context.Context, repos []string) error {
	if len(repos) == 0 {
		a.logger.Info("removing manifest cache")
		if err := a.cache.Purge(); err != nil {
			return err
		}
		a.logger.Info("removed manifest cache")
		return nil
	}

	var errs error
	for _, repo := range repos {
		if err := a.cache.Remove(repo); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		a.logger.Info("removed cached manifest", "repo", repo)
	}
	return errs
}

// ConfigureLogging applies the log format and level chosen on the command line.
func (a *App) ConfigureLogging(format, level string) error {
	return a.logger.Configure(format, level)
}

// EnableProgress prints completed fetches and downloads to w when the
// telemetry backend supports console output.
func (a *App) EnableProgress(w io.Writer) {
	if t, ok := a.telemetry.(interface{ SetOutput(io.Writer) }); ok {
		t.SetOutput(w)
	}
}

// Close flushes the telemetry session.
func (a *App) Close() error {
	if a.telemetry == nil {
		return nil
	}
	return a.telemetry.Close()
}

// resolve runs the resolver and hands every event to onEvent while the walk
// settles.
func (a *App) resolve(
	ctx context.Context,
	repos []string,
	opts SourceOptions,
	onEvent func(domain.Event),
) (*domain.Resolution, error) {
	cfg := a.sourceConfig(opts)
	a.cacheToken(opts.Token)

	r, err := a.resolvers.Resolver(cfg)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.Event)
	var res *domain.Resolution

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for ev := range events {
			onEvent(ev)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		res, err = r.Validate(gctx, repos, events)
		return err
	})

	err = g.Wait()
	return res, err
}

func (a *App) roots(repos []string) ([]string, error) {
	if len(repos) > 0 {
		return repos, nil
	}

	dir, err := a.dir()
	if err != nil {
		return nil, err
	}
	deps, err := a.manifests.Dependencies(dir)
	if err != nil {
		return nil, err
	}
	if len(deps) == 0 {
		return nil, domain.ErrNoLocalDependencies
	}
	return deps, nil
}

func (a *App) dir() (string, error) {
	if a.workDir != "" {
		return a.workDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get working directory")
	}
	return wd, nil
}

func (a *App) sourceConfig(opts SourceOptions) domain.SourceConfig {
	cfg := a.settings.SourceConfig()
	cfg.Token = a.token(opts)
	cfg.Refresh = opts.Refresh
	if opts.Source != "" {
		cfg.Kind = opts.Source
	}
	if opts.SourceDir != "" {
		cfg.Dir = opts.SourceDir
		if opts.Source == "" {
			cfg.Kind = domain.SourceDirectory
		}
	}
	return cfg
}

func (a *App) token(opts SourceOptions) domain.Token {
	if opts.Token != "" {
		return opts.Token
	}
	return a.settings.Token
}

// cacheToken persists a token given on the command line so later runs can
// omit it.
func (a *App) cacheToken(token domain.Token) {
	if token == "" || token == a.settings.Token || a.store == nil {
		return
	}
	if err := a.store.SaveToken(token); err != nil {
		a.logger.Warn("failed to cache token", "error", err)
	}
}

func (a *App) reportCycles(printer *output.Printer, res *domain.Resolution) {
	for _, path := range res.Cycles {
		a.logger.Warn("dependency cycle", "path", fmt.Sprint(path))
		printer.Cycle(path)
	}
}
