package github_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zel/internal/adapters/cache"
	"go.trai.ch/zel/internal/adapters/github"
	"go.trai.ch/zel/internal/adapters/logger"
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zel/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type contentsServer struct {
	*httptest.Server
	hits    atomic.Int32
	headers chan http.Header
}

func newContentsServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *contentsServer {
	t.Helper()
	s := &contentsServer{headers: make(chan http.Header, 16)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		select {
		case s.headers <- r.Header.Clone():
		default:
		}
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func contentsPayload(t *testing.T, m domain.Manifest) []byte {
	t.Helper()
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString(raw)
	payload, err := json.Marshal(map[string]any{
		"type":     "file",
		"name":     ".zel",
		"path":     ".zel",
		"encoding": "base64",
		"content":  encoded[:10] + "\n" + encoded[10:],
	})
	require.NoError(t, err)
	return payload
}

func manifestHandler(t *testing.T, m domain.Manifest) func(http.ResponseWriter, *http.Request) {
	t.Helper()
	payload := contentsPayload(t, m)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widgets/contents/.zel" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}
}

func newSource(t *testing.T, srv *contentsServer, cfg domain.SourceConfig, opener *cache.Opener) *github.Source {
	t.Helper()
	cfg.APIBaseURL = srv.URL
	var (
		src *github.Source
		err error
	)
	if opener == nil {
		src, err = github.New(cfg, nil, logger.NewWithWriter(io.Discard))
	} else {
		src, err = github.New(cfg, opener, logger.NewWithWriter(io.Discard))
	}
	require.NoError(t, err)
	return src
}

var widgets = domain.Manifest{
	Files:        []string{"Makefile", "ci/lint.yml"},
	Dependencies: []string{"acme/base"},
}

func TestSource_FetchesAndCaches(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))
	opener := cache.NewOpener(t.TempDir())
	src := newSource(t, srv, domain.SourceConfig{}, opener)

	m, err := src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, widgets, *m)

	m, err = src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, widgets, *m)
	assert.Equal(t, int32(1), srv.hits.Load())

	store, err := opener.Open("acme/widgets")
	require.NoError(t, err)
	cached, err := store.Get(domain.ConfigCacheKey)
	require.NoError(t, err)
	assert.Equal(t, widgets, *cached)
}

func TestSource_ExpiredEntryIsRefetched(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))

	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	opener := cache.NewOpener(t.TempDir(), cache.WithClock(clock))
	src := newSource(t, srv, domain.SourceConfig{MaxAge: time.Hour}, opener)

	_, err := src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(59 * time.Minute)
	mu.Unlock()
	_, err = src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.hits.Load())

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()
	_, err = src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestSource_Refresh(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))
	opener := cache.NewOpener(t.TempDir())
	src := newSource(t, srv, domain.SourceConfig{Refresh: true}, opener)

	for range 2 {
		_, err := src.FetchConfig(context.Background(), "acme/widgets")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), srv.hits.Load())
}

func TestSource_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler func(http.ResponseWriter, *http.Request)
		kind    error
	}{
		{
			name:    "not found",
			handler: http.NotFound,
			kind:    domain.ErrManifestNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			kind: domain.ErrTransport,
		},
		{
			name: "invalid payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"type":"file","encoding":"base64","content":"bm90IGpzb24="}`)
			},
			kind: domain.ErrManifestDecode,
		},
		{
			name: "unsupported encoding",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"type":"file","encoding":"none","content":"{}"}`)
			},
			kind: domain.ErrManifestDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newContentsServer(t, tt.handler)
			opener := cache.NewOpener(t.TempDir())
			src := newSource(t, srv, domain.SourceConfig{}, opener)

			m, err := src.FetchConfig(context.Background(), "acme/widgets")
			require.Error(t, err)
			assert.Nil(t, m)
			assert.ErrorIs(t, err, tt.kind)

			var repoErr *domain.RepoError
			require.ErrorAs(t, err, &repoErr)
			assert.Equal(t, "acme/widgets", repoErr.Repo)

			store, err := opener.Open("acme/widgets")
			require.NoError(t, err)
			has, err := store.Has(domain.ConfigCacheKey)
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestSource_InvalidRepoName(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))
	src := newSource(t, srv, domain.SourceConfig{}, nil)

	for _, repo := range []string{"", "widgets", "acme/", "/widgets", "a/b/c"} {
		_, err := src.FetchConfig(context.Background(), repo)
		assert.ErrorIs(t, err, domain.ErrInvalidRepoName, repo)
	}
	assert.Zero(t, srv.hits.Load())
}

func TestSource_Headers(t *testing.T) {
	t.Run("with token", func(t *testing.T) {
		srv := newContentsServer(t, manifestHandler(t, widgets))
		src := newSource(t, srv, domain.SourceConfig{Token: "s3cr3t"}, nil)

		_, err := src.FetchConfig(context.Background(), "acme/widgets")
		require.NoError(t, err)

		h := <-srv.headers
		assert.Equal(t, "token s3cr3t", h.Get("Authorization"))
		assert.Equal(t, domain.UserAgent, h.Get("User-Agent"))
	})

	t.Run("without token", func(t *testing.T) {
		srv := newContentsServer(t, manifestHandler(t, widgets))
		src := newSource(t, srv, domain.SourceConfig{}, nil)

		_, err := src.FetchConfig(context.Background(), "acme/widgets")
		require.NoError(t, err)

		h := <-srv.headers
		assert.Empty(t, h.Get("Authorization"))
		assert.Equal(t, domain.UserAgent, h.Get("User-Agent"))
	})
}

func TestSource_CacheFailuresAreNotFatal(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))
	ctrl := gomock.NewController(t)

	store := mocks.NewMockCacheStore(ctrl)
	store.EXPECT().Has(domain.ConfigCacheKey).Return(false, errors.New("disk on fire"))
	store.EXPECT().Set(domain.ConfigCacheKey, widgets, domain.DefaultCacheTTL).Return(errors.New("read-only"))

	opener := mocks.NewMockCacheOpener(ctrl)
	opener.EXPECT().Open("acme/widgets").Return(store, nil)

	src, err := github.New(domain.SourceConfig{APIBaseURL: srv.URL}, opener, logger.NewWithWriter(io.Discard))
	require.NoError(t, err)

	m, err := src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, widgets, *m)
}

func TestSource_CacheFailuresAreLoggedOnVertex(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))
	ctrl := gomock.NewController(t)

	store := mocks.NewMockCacheStore(ctrl)
	store.EXPECT().Has(domain.ConfigCacheKey).Return(false, errors.New("disk on fire"))
	store.EXPECT().Set(domain.ConfigCacheKey, widgets, domain.DefaultCacheTTL).Return(errors.New("read-only"))

	opener := mocks.NewMockCacheOpener(ctrl)
	opener.EXPECT().Open("acme/widgets").Return(store, nil)

	vertex := mocks.NewMockVertex(ctrl)
	vertex.EXPECT().Log(domain.LogLevelWarn, "failed to read manifest cache: disk on fire")
	vertex.EXPECT().Log(domain.LogLevelWarn, "failed to write manifest cache: read-only")
	vertex.EXPECT().Complete(nil)

	tel := mocks.NewMockTelemetry(ctrl)
	tel.EXPECT().Record(gomock.Any(), "fetch acme/widgets").DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
			return ports.ContextWithVertex(ctx, vertex), vertex
		},
	)

	src, err := github.New(
		domain.SourceConfig{APIBaseURL: srv.URL},
		opener,
		logger.NewWithWriter(io.Discard),
		github.WithTelemetry(tel),
	)
	require.NoError(t, err)

	_, err = src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)
}

func TestSource_OpenFailureFallsBackToNetwork(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))
	ctrl := gomock.NewController(t)

	opener := mocks.NewMockCacheOpener(ctrl)
	opener.EXPECT().Open("acme/widgets").Return(nil, domain.ErrStorage)

	src, err := github.New(domain.SourceConfig{APIBaseURL: srv.URL}, opener, logger.NewWithWriter(io.Discard))
	require.NoError(t, err)

	_, err = src.FetchConfig(context.Background(), "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.hits.Load())
}

// gatedTransport answers every contents request with payload once release is closed.
type gatedTransport struct {
	hits    atomic.Int32
	release chan struct{}
	payload []byte
}

func newGatedTransport(t *testing.T, m domain.Manifest) *gatedTransport {
	t.Helper()
	return &gatedTransport{release: make(chan struct{}), payload: contentsPayload(t, m)}
}

func (g *gatedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	g.hits.Add(1)
	select {
	case <-g.release:
	case <-r.Context().Done():
		return nil, r.Context().Err()
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(g.payload)),
		Request:    r,
	}, nil
}

func newGatedSource(t *testing.T, tr *gatedTransport) *github.Source {
	t.Helper()
	src, err := github.New(
		domain.SourceConfig{APIBaseURL: "https://api.github.test"},
		nil,
		logger.NewWithWriter(io.Discard),
		github.WithTransport(tr),
	)
	require.NoError(t, err)
	return src
}

func TestSource_ConcurrentCallersShareOneFetch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const callers = 8
		tr := newGatedTransport(t, widgets)
		src := newGatedSource(t, tr)

		results := make([]*domain.Manifest, callers)
		errs := make([]error, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Go(func() {
				results[i], errs[i] = src.FetchConfig(context.Background(), "acme/widgets")
			})
		}

		synctest.Wait()
		assert.Equal(t, int32(1), tr.hits.Load())

		close(tr.release)
		wg.Wait()

		for i := range callers {
			require.NoError(t, errs[i])
			assert.Equal(t, widgets, *results[i])
		}
		assert.Equal(t, int32(1), tr.hits.Load())

		results[0].Files[0] = "mutated"
		assert.Equal(t, "Makefile", results[1].Files[0])
	})
}

func TestSource_CanceledCallerLeavesSharedFetchRunning(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := newGatedTransport(t, widgets)
		src := newGatedSource(t, tr)

		ctx, cancel := context.WithCancel(context.Background())
		var (
			wg       sync.WaitGroup
			canceled error
			live     *domain.Manifest
			liveErr  error
		)
		wg.Go(func() {
			_, canceled = src.FetchConfig(ctx, "acme/widgets")
		})
		synctest.Wait()

		wg.Go(func() {
			live, liveErr = src.FetchConfig(context.Background(), "acme/widgets")
		})
		synctest.Wait()

		cancel()
		synctest.Wait()
		require.Error(t, canceled)
		assert.ErrorIs(t, canceled, domain.ErrTransport)
		assert.ErrorIs(t, canceled, context.Canceled)

		close(tr.release)
		wg.Wait()

		require.NoError(t, liveErr)
		assert.Equal(t, widgets, *live)
		assert.Equal(t, int32(1), tr.hits.Load())
	})
}

func TestSource_ContextCanceled(t *testing.T) {
	srv := newContentsServer(t, manifestHandler(t, widgets))
	src := newSource(t, srv, domain.SourceConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.FetchConfig(ctx, "acme/widgets")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
