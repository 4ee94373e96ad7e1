package github

import (
	"net/http"

	"go.trai.ch/zel/internal/core/domain"
)

// tokenTransport attaches the `Authorization: token <value>` header.
type tokenTransport struct {
	token domain.Token
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "token "+string(t.token))
	return t.base.RoundTrip(req)
}
