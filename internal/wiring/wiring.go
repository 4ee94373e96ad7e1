// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/zel/internal/adapters/cache"
	_ "go.trai.ch/zel/internal/adapters/config"
	_ "go.trai.ch/zel/internal/adapters/fs"
	_ "go.trai.ch/zel/internal/adapters/logger"
	_ "go.trai.ch/zel/internal/adapters/source"
	_ "go.trai.ch/zel/internal/adapters/telemetry/progrock"
	// Register app and engine nodes.
	_ "go.trai.ch/zel/internal/app"
	_ "go.trai.ch/zel/internal/engine/resolver"
)
