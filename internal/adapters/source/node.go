package source

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zel/internal/adapters/cache"
	"go.trai.ch/zel/internal/adapters/logger"
	"go.trai.ch/zel/internal/adapters/telemetry/progrock"
	"go.trai.ch/zel/internal/core/ports"
)

// NodeID is the unique identifier for the source provider Graft node.
const NodeID graft.ID = "adapter.source"

func init() {
	graft.Register(graft.Node[ports.SourceProvider]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{cache.NodeID, logger.NodeID, progrock.NodeID},
		Run: func(ctx context.Context) (ports.SourceProvider, error) {
			opener, err := graft.Dep[ports.CacheOpener](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewProvider(opener, log, tel), nil
		},
	})
}
