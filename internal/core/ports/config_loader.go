package ports

import "go.trai.ch/zel/internal/core/domain"

//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks

// ManifestReader reads the manifest of the working directory.
type ManifestReader interface {
	// Dependencies returns the dependencies declared by the .zel file in dir.
	Dependencies(dir string) ([]string, error)
}

// SettingsStore loads and persists user settings.
type SettingsStore interface {
	Load() (domain.Settings, error)
	SaveToken(token domain.Token) error
}
