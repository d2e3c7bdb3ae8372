package cmd

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catapult-platform/internal/auth"
	"catapult-platform/internal/config"
	"catapult-platform/pkg/catapult"
)

func newMeta(t *testing.T, h http.HandlerFunc) (*Meta, *cli.MockUi) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	ui := cli.NewMockUi()
	return &Meta{
		UI: ui,
		Client: func() (*catapult.Client, error) {
			return catapult.New("u-1", "token", "secret", catapult.WithBaseURL(srv.URL), catapult.WithHTTPClient(srv.Client()))
		},
	}, ui
}

func run(t *testing.T, meta *Meta, args ...string) int {
	t.Helper()
	c := &cli.CLI{Name: "catapult", Args: args, Commands: Commands(meta)}
	code, err := c.Run()
	require.NoError(t, err)
	return code
}

func TestAccount(t *testing.T) {
	meta, ui := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/users/u-1/account", r.URL.Path)
		_, _ = io.WriteString(w, `{"balance":"12.50","accountType":"pre-pay"}`)
	})

	require.Equal(t, 0, run(t, meta, "account"))
	var acct catapult.Account
	require.NoError(t, json.Unmarshal([]byte(ui.OutputWriter.String()), &acct))
	assert.Equal(t, "12.50", acct.Balance)
}

func TestCallsCreate(t *testing.T) {
	var body map[string]any
	meta, ui := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Location", "/v1/users/u-1/calls/c-77")
		w.WriteHeader(http.StatusCreated)
	})

	require.Equal(t, 0, run(t, meta, "calls", "create", "-from", "+19195550000", "-to", "+15551234567", "-record"))
	assert.Contains(t, ui.OutputWriter.String(), `"id": "c-77"`)
	assert.Equal(t, true, body["recordingEnabled"])
}

func TestCallsCreate_RequiresNumbers(t *testing.T) {
	meta, ui := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	assert.Equal(t, 1, run(t, meta, "calls", "create", "-from", "+19195550000"))
	assert.Contains(t, ui.ErrorWriter.String(), "-from and -to are required")
}

func TestCallsGet_APIError(t *testing.T) {
	meta, ui := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"call-not-found","message":"The call c-1 could not be found"}`)
	})
	assert.Equal(t, 1, run(t, meta, "calls", "get", "c-1"))
	assert.Contains(t, ui.ErrorWriter.String(), "call-not-found")

	assert.Equal(t, 1, run(t, meta, "calls", "get"))
}

func TestCallsList(t *testing.T) {
	meta, ui := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from=%2B19195550000&size=5", r.URL.RawQuery)
		_, _ = io.WriteString(w, `[]`)
	})
	require.Equal(t, 0, run(t, meta, "calls", "list", "-from", "+19195550000", "-size", "5"))
	assert.Equal(t, "[]\n", ui.OutputWriter.String())
}

func TestMessagesSend(t *testing.T) {
	var body catapult.SendMessageRequest
	meta, _ := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Location", "/v1/users/u-1/messages/m-1")
		w.WriteHeader(http.StatusCreated)
	})
	require.Equal(t, 0, run(t, meta, "messages", "send", "-from", "+1", "-to", "+2", "-media", "https://a/1.png", "-media", "https://a/2.png"))
	assert.Equal(t, []string{"https://a/1.png", "https://a/2.png"}, body.Media)
}

func TestMessagesList_ParsesDates(t *testing.T) {
	meta, _ := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-02T00:00:00.0000000Z", r.URL.Query().Get("fromDateTime"))
		_, _ = io.WriteString(w, `[]`)
	})
	require.Equal(t, 0, run(t, meta, "messages", "list", "-since", "2024-01-02"))

	assert.Equal(t, 1, run(t, meta, "messages", "list", "-since", "not a date"))
}

func TestNumbersOrderTollFree(t *testing.T) {
	meta, ui := newMeta(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/availableNumbers/tollFree", r.URL.Path)
		_, _ = io.WriteString(w, `[{"number":"+18445550000","location":"https://api/v1/users/u-1/phoneNumbers/n-9"}]`)
	})
	require.Equal(t, 0, run(t, meta, "numbers", "order", "-toll-free"))
	assert.Contains(t, ui.OutputWriter.String(), "+18445550000")

	assert.Equal(t, 1, run(t, meta, "numbers", "search"))
}

func TestToken(t *testing.T) {
	ui := cli.NewMockUi()
	cfg := &config.AuthConfig{JWTSecret: "secret", JWTIssuer: "iss", JWTAudience: "aud"}
	c := &TokenCommand{Meta: &Meta{UI: ui}, Auth: cfg}

	require.Equal(t, 0, c.Run([]string{"-subject", "svc", "-workspace", "ws-1", "-role", "owner"}))

	m, err := auth.NewManager(*cfg)
	require.NoError(t, err)
	claims, err := m.Verify(strings.TrimSpace(ui.OutputWriter.String()), time.Now())
	require.NoError(t, err)
	assert.Equal(t, auth.RoleOwner, claims.Role)

	c = &TokenCommand{Meta: &Meta{UI: cli.NewMockUi()}, Auth: cfg}
	assert.Equal(t, 1, c.Run([]string{"-subject", "svc", "-workspace", "ws-1", "-role", "root"}))
}

func TestRoutesCheck(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "ok.yaml", []byte(`numbers: [{number: "+19195550000", workspace_id: ws-1, action: hangup}]`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte(`numbers: [{number: "nope"}]`), 0o644))

	ui := cli.NewMockUi()
	c := &RoutesCheckCommand{Meta: &Meta{UI: ui}, FS: fs}
	require.Equal(t, 0, c.Run([]string{"ok.yaml"}))
	assert.Contains(t, ui.OutputWriter.String(), "1 number(s) OK")

	assert.Equal(t, 1, c.Run([]string{"bad.yaml"}))
	assert.Equal(t, 1, c.Run([]string{"missing.yaml"}))
}

func TestGroupCommandShowsHelp(t *testing.T) {
	meta, _ := newMeta(t, func(http.ResponseWriter, *http.Request) {})
	c := &cli.CLI{Name: "catapult", Args: []string{"calls"}, Commands: Commands(meta), HelpWriter: io.Discard}
	code, err := c.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}
