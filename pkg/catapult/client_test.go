package catapult

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// newTestClient starts a fake API server and a client pointed at it.
func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New("u-1", "token", "secret", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, srv
}

func TestNew_Succeeds(t *testing.T) {
	c, err := New("u-1", "token", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.UserID())
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, "catapult-go/"+Version, c.UserAgent())
	assert.NotNil(t, c.Calls)
	assert.NotNil(t, c.AvailableNumbers)
}

func TestNew_MissingCredentials(t *testing.T) {
	tests := []struct {
		name                  string
		userID, token, secret string
	}{
		{"missing user", "", "token", "secret"},
		{"missing token", "u-1", "", "secret"},
		{"missing secret", "u-1", "token", ""},
		{"all missing", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.userID, tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrMissingCredentials)
		})
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		userID  string
	}{
		{"empty with credentials", "", "u-1"},
		{"empty without credentials", "", ""},
		{"relative", "api.example.com", "u-1"},
		{"unsupported scheme", "ftp://api.example.com", "u-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.userID, "token", "secret", WithBaseURL(tt.baseURL))
			assert.ErrorIs(t, err, ErrInvalidBaseURL)
		})
	}
}

func TestNew_RejectsNilTransport(t *testing.T) {
	_, err := New("u-1", "token", "secret", WithTransport(nil))
	require.Error(t, err)
}

func TestNew_UserAgentSuffix(t *testing.T) {
	c, err := New("u-1", "token", "secret", WithUserAgent("my-app/2.0"))
	require.NoError(t, err)
	assert.Equal(t, "catapult-go/"+Version+" my-app/2.0", c.UserAgent())
}

func TestNew_BasicAuthHeader(t *testing.T) {
	var got string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.SendJSONNoResult(context.Background(), http.MethodGet, "/ping", nil, nil))
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("token:secret"))
	assert.Equal(t, want, got)
}
