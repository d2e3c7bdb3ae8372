package catapult

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Transport sends a request and returns its response. Cancellation travels
// on the request context. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the Client.
type Option func(*clientConfig) error

type clientConfig struct {
	baseURL   string
	transport Transport
	logger    *slog.Logger
	userAgent string
	timeout   time.Duration
}

func newDefaultConfig() *clientConfig {
	return &clientConfig{
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}
}

// WithBaseURL sets the API server address, e.g. "https://api.catapult.inetwork.com".
// An empty or relative address makes New fail with ErrInvalidBaseURL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) error {
		c.baseURL = strings.TrimSpace(url)
		return nil
	}
}

// WithTransport replaces the HTTP transport, e.g. for tests or proxies.
func WithTransport(t Transport) Option {
	return func(c *clientConfig) error {
		if t == nil {
			return errors.New("transport cannot be nil")
		}
		c.transport = t
		return nil
	}
}

// WithHTTPClient uses the given *http.Client as transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) error {
		if hc == nil {
			return errors.New("HTTP client cannot be nil")
		}
		c.transport = hc
		return nil
	}
}

// WithTimeout sets the timeout of the default transport.
// It has no effect when WithTransport or WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithLogger enables debug logging of each request. Credentials are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) error {
		c.logger = l
		return nil
	}
}

// WithUserAgent appends a suffix to the SDK's User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) error {
		c.userAgent = strings.TrimSpace(ua)
		return nil
	}
}

// RequestOption adjusts a single API call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	version string
}

// WithAPIVersion selects the API version path segment for one call.
// Default: "v1"
func WithAPIVersion(v string) RequestOption {
	return func(o *requestOptions) {
		o.version = v
	}
}

func applyRequestOptions(opts []RequestOption) requestOptions {
	o := requestOptions{version: DefaultAPIVersion}
	for _, opt := range opts {
		opt(&o)
	}
	if o.version == "" {
		o.version = DefaultAPIVersion
	}
	return o
}
