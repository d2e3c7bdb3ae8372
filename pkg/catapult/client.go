package catapult

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Client is the Catapult API client. Its configuration is fixed at
// construction, so a single Client may be shared across goroutines.
type Client struct {
	userID        string
	baseURL       string
	authorization string
	userAgent     string
	transport     Transport
	logger        *slog.Logger

	common service

	Account          *AccountService
	Applications     *ApplicationService
	AvailableNumbers *AvailableNumberService
	Bridges          *BridgeService
	Calls            *CallService
	Conferences      *ConferenceService
	Messages         *MessageService
	PhoneNumbers     *PhoneNumberService
	Recordings       *RecordingService
}

type service struct {
	client *Client
}

// New creates a Client for the given user and API credential pair.
//
// It fails with ErrInvalidBaseURL when the configured base URL is empty or
// not an absolute http(s) URL, and with ErrMissingCredentials when any of
// userID, apiToken or apiSecret is empty.
func New(userID, apiToken, apiSecret string, opts ...Option) (*Client, error) {
	config := newDefaultConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("catapult: invalid option: %w", err)
		}
	}

	baseURL, err := normalizeBaseURL(config.baseURL)
	if err != nil {
		return nil, err
	}
	if userID == "" || apiToken == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}

	transport := config.transport
	if transport == nil {
		transport = &http.Client{Timeout: config.timeout}
	}

	logger := config.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	userAgent := "catapult-go/" + Version
	if config.userAgent != "" {
		userAgent += " " + config.userAgent
	}

	c := &Client{
		userID:        userID,
		baseURL:       baseURL,
		authorization: "Basic " + base64.StdEncoding.EncodeToString([]byte(apiToken+":"+apiSecret)),
		userAgent:     userAgent,
		transport:     transport,
		logger:        logger,
	}
	c.common.client = c
	c.Account = (*AccountService)(&c.common)
	c.Applications = (*ApplicationService)(&c.common)
	c.AvailableNumbers = (*AvailableNumberService)(&c.common)
	c.Bridges = (*BridgeService)(&c.common)
	c.Calls = (*CallService)(&c.common)
	c.Conferences = (*ConferenceService)(&c.common)
	c.Messages = (*MessageService)(&c.common)
	c.PhoneNumbers = (*PhoneNumberService)(&c.common)
	c.Recordings = (*RecordingService)(&c.common)
	return c, nil
}

// UserID returns the Catapult user the client acts for.
func (c *Client) UserID() string { return c.userID }

// BaseURL returns the normalized server address, without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// UserAgent returns the User-Agent header value sent with every request.
func (c *Client) UserAgent() string { return c.userAgent }

// userPath prefixes a resource path with /users/{userId}.
func (c *Client) userPath(format string, args ...any) string {
	return "/users/" + url.PathEscape(c.userID) + fmt.Sprintf(format, args...)
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", ErrInvalidBaseURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}
	return raw, nil
}
