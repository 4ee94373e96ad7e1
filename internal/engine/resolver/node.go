package resolver

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zel/internal/adapters/source"             //nolint:depguard // Wired in engine wiring
	"go.trai.ch/zel/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
)

// NodeID is the unique identifier for the resolver factory Graft node.
const NodeID graft.ID = "engine.resolver"

// Factory builds a Resolver for a given source configuration. The source kind
// and refresh flag are only known once the command line has been parsed.
type Factory struct {
	provider  ports.SourceProvider
	telemetry ports.Telemetry
}

// NewFactory creates a Factory.
func NewFactory(provider ports.SourceProvider, telemetry ports.Telemetry) *Factory {
	return &Factory{provider: provider, telemetry: telemetry}
}

// Resolver returns a Resolver reading manifests from the source selected by cfg.
func (f *Factory) Resolver(cfg domain.SourceConfig, opts ...Option) (*Resolver, error) {
	src, err := f.provider.Source(cfg)
	if err != nil {
		return nil, err
	}
	if f.telemetry != nil {
		opts = append([]Option{WithTelemetry(f.telemetry)}, opts...)
	}
	return New(src, opts...), nil
}

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{source.NodeID, progrock.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			provider, err := graft.Dep[ports.SourceProvider](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(provider, tel), nil
		},
	})
}
