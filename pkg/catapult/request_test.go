package catapult

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	c, err := New("u-1", "token", "secret", WithBaseURL("https://api.example.com"))
	require.NoError(t, err)

	req, err := c.BuildRequest(context.Background(), http.MethodGet, "/calls", Query{{"to", "+1234"}}, nil, "v1")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1/calls?to=%2B1234", req.URL.String())
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, c.UserAgent(), req.Header.Get("User-Agent"))
	assert.Equal(t, "Basic dG9rZW46c2VjcmV0", req.Header.Get("Authorization"))
}

func TestBuildRequest_Deterministic(t *testing.T) {
	c, err := New("u-1", "token", "secret", WithBaseURL("https://api.example.com/"))
	require.NoError(t, err)

	q := Query{{"from", "+1"}, {"page", 2}}
	a, err := c.BuildRequest(context.Background(), http.MethodGet, "/calls", q, nil, "")
	require.NoError(t, err)
	b, err := c.BuildRequest(context.Background(), http.MethodGet, "/calls", q, nil, "")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v1/calls?from=%2B1&page=2", a.URL.String())
	assert.Equal(t, a.URL.String(), b.URL.String())
}

func TestBuildRequest_VersionOverride(t *testing.T) {
	c, err := New("u-1", "token", "secret", WithBaseURL("https://api.example.com"))
	require.NoError(t, err)

	req, err := c.BuildRequest(context.Background(), http.MethodPost, "/users/u-1/media", nil, nil, "v2")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v2/users/u-1/media", req.URL.String())
}

func TestBuildRequest_InvalidMethod(t *testing.T) {
	c, err := New("u-1", "token", "secret")
	require.NoError(t, err)

	_, err = c.BuildRequest(context.Background(), "BAD METHOD", "/calls", nil, nil, "")
	assert.Error(t, err)
}

func TestNewRequest_RefusesForeignHost(t *testing.T) {
	c, err := New("u-1", "token", "secret", WithBaseURL("https://api.example.com"))
	require.NoError(t, err)

	_, err = c.newRequest(context.Background(), http.MethodGet, "https://evil.example.org/v1/calls", nil)
	assert.Error(t, err)
}
