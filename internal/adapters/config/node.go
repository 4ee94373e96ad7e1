package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
)

const (
	// StoreNodeID is the unique identifier for the settings store Graft node.
	StoreNodeID graft.ID = "adapter.config.store"
	// SettingsNodeID is the unique identifier for the loaded settings Graft node.
	SettingsNodeID graft.ID = "adapter.config.settings"
	// ManifestReaderNodeID is the unique identifier for the local manifest reader Graft node.
	ManifestReaderNodeID graft.ID = "adapter.config.manifest_reader"
)

func init() {
	graft.Register(graft.Node[ports.SettingsStore]{
		ID:        StoreNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SettingsStore, error) {
			return NewSettingsStore(domain.DefaultRCPath()), nil
		},
	})

	graft.Register(graft.Node[domain.Settings]{
		ID:        SettingsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{StoreNodeID},
		Run: func(ctx context.Context) (domain.Settings, error) {
			store, err := graft.Dep[ports.SettingsStore](ctx)
			if err != nil {
				return domain.Settings{}, err
			}
			return store.Load()
		},
	})

	graft.Register(graft.Node[ports.ManifestReader]{
		ID:        ManifestReaderNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ManifestReader, error) {
			return NewManifestReader(), nil
		},
	})
}
