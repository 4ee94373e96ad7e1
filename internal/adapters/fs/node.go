package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zel/internal/adapters/telemetry/progrock" //nolint:depguard // Downloads are recorded as vertices
	"go.trai.ch/zel/internal/core/ports"
)

// MaterializerNodeID is the unique identifier for the materializer Graft node.
const MaterializerNodeID graft.ID = "adapter.fs.materializer"

func init() {
	graft.Register(graft.Node[ports.Materializer]{
		ID:        MaterializerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{progrock.NodeID},
		Run: func(ctx context.Context) (ports.Materializer, error) {
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewMaterializer(WithTelemetry(tel)), nil
		},
	})
}
