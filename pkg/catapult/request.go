package catapult

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BuildRequest constructs an authenticated request for
// {base}/{version}{path}?{query}. path must start with '/'. An empty
// version selects DefaultAPIVersion. No I/O happens here.
func (c *Client) BuildRequest(ctx context.Context, method, path string, query Query, body io.Reader, version string) (*http.Request, error) {
	if version == "" {
		version = DefaultAPIVersion
	}
	fullURL := c.baseURL + "/" + version + path
	if qs := query.Encode(); qs != "" {
		fullURL += "?" + qs
	}
	return c.newRequest(ctx, method, fullURL, body)
}

// newRequest builds a request for an absolute URL on the configured server.
func (c *Client) newRequest(ctx context.Context, method, fullURL string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(fullURL, c.baseURL+"/") {
		return nil, fmt.Errorf("catapult: refusing to send credentials to %q", fullURL)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("catapult: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", c.authorization)
	return req, nil
}
