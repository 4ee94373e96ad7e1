package domain_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zel/internal/core/domain"
)

func TestDecodeManifest(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(
		[]byte(`{"files":["Makefile",".editorconfig"],"dependencies":["owner/dep"],"extra":true}`),
	)
	// The contents API wraps base64 payloads every 60 characters.
	wrapped := payload[:10] + "\n" + payload[10:] + "\n"

	m, err := domain.DecodeManifest("owner/repo", ".zel", wrapped)
	require.NoError(t, err)
	assert.Equal(t, []string{"Makefile", ".editorconfig"}, m.Files)
	assert.Equal(t, []string{"owner/dep"}, m.Dependencies)
}

func TestDecodeManifest_EmptyObject(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(`{}`))

	m, err := domain.DecodeManifest("owner/repo", ".zel", payload)
	require.NoError(t, err)
	assert.Empty(t, m.Files)
	assert.Empty(t, m.Dependencies)
}

func TestDecodeManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"InvalidBase64", "!!!not-base64!!!"},
		{"InvalidJSON", base64.StdEncoding.EncodeToString([]byte(`{"files": [`))},
		{"WrongShape", base64.StdEncoding.EncodeToString([]byte(`["a","b"]`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.DecodeManifest("owner/repo", "owner/repo/.zel", tt.encoded)
			require.ErrorIs(t, err, domain.ErrManifestDecode)

			var repoErr *domain.RepoError
			require.ErrorAs(t, err, &repoErr)
			assert.Equal(t, "owner/repo", repoErr.Repo)
			assert.Equal(t, "owner/repo/.zel", repoErr.Location)
			assert.Contains(t, err.Error(), "owner/repo")
		})
	}
}
