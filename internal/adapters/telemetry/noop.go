// Package telemetry provides telemetry adapters that need no backend.
package telemetry

import (
	"context"

	"go.trai.ch/zel/internal/core/domain"
	"go.trai.ch/zel/internal/core/ports"
)

var _ ports.Telemetry = (*NoOp)(nil)

// NoOp is a no-op implementation of ports.Telemetry.
type NoOp struct{}

// NewNoOp creates a new NoOp telemetry.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Record returns ctx unchanged and a vertex that discards everything.
func (t *NoOp) Record(ctx context.Context, _ string) (context.Context, ports.Vertex) {
	return ctx, NoOpVertex{}
}

// Close does nothing.
func (t *NoOp) Close() error {
	return nil
}

// NoOpVertex is a no-op implementation of ports.Vertex.
type NoOpVertex struct{}

// Log does nothing.
func (NoOpVertex) Log(_ domain.LogLevel, _ string) {}

// Cached does nothing.
func (NoOpVertex) Cached() {}

// Complete does nothing.
func (NoOpVertex) Complete(_ error) {}
