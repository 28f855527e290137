package julesapi

import (
	"net/http"
	"time"
)

// Factory builds per-call clients that share one base URL and one
// *http.Client. It holds no credential.
type Factory struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewFactory returns a Factory for baseURL. A zero timeout keeps the
// transport defaults.
func NewFactory(baseURL string, timeout time.Duration, userAgent string) *Factory {
	return &Factory{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// NewClient returns a fresh client for apiKey.
func (f *Factory) NewClient(apiKey string) *Client {
	return NewClient(f.baseURL, apiKey,
		WithHTTPClient(f.httpClient),
		WithUserAgent(f.userAgent),
	)
}
