package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zel/internal/adapters/cache"              //nolint:depguard // Wired in app layer
	"go.trai.ch/zel/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/zel/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/zel/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/zel/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
	"go.trai.ch/zel/internal/engine/resolver"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App      *App
	Logger   ports.Logger
	Settings domain.Settings
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			config.StoreNodeID,
			config.ManifestReaderNodeID,
			resolver.NodeID,
			fs.MaterializerNodeID,
			cache.NodeID,
			logger.NodeID,
			progrock.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.SettingsNodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:      app,
				Logger:   log,
				Settings: settings,
			}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	settings, err := graft.Dep[domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.SettingsStore](ctx)
	if err != nil {
		return nil, err
	}

	manifests, err := graft.Dep[ports.ManifestReader](ctx)
	if err != nil {
		return nil, err
	}

	factory, err := graft.Dep[*resolver.Factory](ctx)
	if err != nil {
		return nil, err
	}

	materializer, err := graft.Dep[ports.Materializer](ctx)
	if err != nil {
		return nil, err
	}

	opener, err := graft.Dep[ports.CacheOpener](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return New(settings, store, manifests, factory, materializer, opener, log, telemetry), nil
}
