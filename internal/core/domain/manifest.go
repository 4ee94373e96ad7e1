package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Manifest is the content of a repository's .zel file.
// Fields other than files and dependencies are ignored.
type Manifest struct {
	Files        []string `json:"files,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// DecodeManifest decodes a base64 encoded manifest as served by the contents API.
// Embedded line breaks in the encoded payload are tolerated.
func DecodeManifest(repo, location, encoded string) (*Manifest, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, encoded)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, &RepoError{Repo: repo, Kind: ErrManifestDecode, Location: location, Cause: err}
	}
	return ParseManifest(repo, location, data)
}

// ParseManifest parses a JSON manifest. Absent fields decode as empty lists.
func ParseManifest(repo, location string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &RepoError{Repo: repo, Kind: ErrManifestDecode, Location: location, Cause: err}
	}
	return &m, nil
}
