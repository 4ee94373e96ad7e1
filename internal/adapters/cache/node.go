package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zel/internal/adapters/config" //nolint:depguard // Settings drive the cache root
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
)

// NodeID is the unique identifier for the cache opener Graft node.
const NodeID graft.ID = "adapter.cache"

func init() {
	graft.Register(graft.Node[ports.CacheOpener]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.CacheOpener, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewOpener(settings.CacheDir), nil
		},
	})
}
