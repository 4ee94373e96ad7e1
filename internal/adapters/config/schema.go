package config

// RCFile represents the structure of the .zelrc settings file.
type RCFile struct {
	Token  string    `yaml:"token,omitempty"`
	Branch string    `yaml:"branch,omitempty"`
	Cache  CacheDTO  `yaml:"cache,omitempty"`
	API    URLsDTO   `yaml:"api,omitempty"`
	Source SourceDTO `yaml:"source,omitempty"`
}

// CacheDTO configures the manifest cache.
type CacheDTO struct {
	Dir string `yaml:"dir,omitempty"`
	TTL string `yaml:"ttl,omitempty"`
}

// URLsDTO overrides the remote endpoints.
type URLsDTO struct {
	URL    string `yaml:"url,omitempty"`
	RawURL string `yaml:"raw_url,omitempty"`
}

// SourceDTO selects the configuration source.
type SourceDTO struct {
	Kind string `yaml:"kind,omitempty"`
	Dir  string `yaml:"dir,omitempty"`
}

// LocalManifest represents the .zel file of the working directory.
type LocalManifest struct {
	Files        []string `json:"files"`
	Dependencies []string `json:"dependencies"`
}
