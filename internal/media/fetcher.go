// Package media retrieves MMS attachments from provider-hosted URLs.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxAttachmentBytes caps a single attachment at 10 MiB.
const maxAttachmentBytes = 10 << 20

// Fetcher downloads attachments over HTTP. URLs on authHost get the bearer
// token attached; provider-hosted media requires it, everything else must
// not see our credentials.
type Fetcher struct {
	client      *http.Client
	bearerToken string
	authHost    string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// NewFetcher creates an attachment fetcher. bearerToken and authHost may be
// empty, in which case no request is authenticated.
func NewFetcher(bearerToken, authHost string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: 30 * time.Second},
		bearerToken: bearerToken,
		authHost:    authHost,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch downloads one attachment.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	if f.bearerToken != "" && f.hostMatches(rawURL) {
		req.Header.Set("Authorization", "Bearer "+f.bearerToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media fetch failed: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
}

func (f *Fetcher) hostMatches(rawURL string) bool {
	if f.authHost == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := u.Hostname()

	return host == f.authHost || strings.HasSuffix(host, "."+f.authHost)
}
