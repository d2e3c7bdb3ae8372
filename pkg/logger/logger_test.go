package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriter_RedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter("prod", &buf)
	l.Info("configured", "api_secret", "s3cr3t", "user_id", "u-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "[redacted]", line["api_secret"])
	assert.Equal(t, "u-1", line["user_id"])
	assert.Equal(t, "catapult-platform", line["service"])
}

func TestNewWriter_DebugOnlyInDev(t *testing.T) {
	var buf bytes.Buffer
	NewWriter("prod", &buf).Debug("hidden")
	assert.Zero(t, buf.Len())

	NewWriter("dev", &buf).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithCall(t *testing.T) {
	var buf bytes.Buffer
	ctx := With(context.Background(), NewWriter("prod", &buf))
	From(WithCall(ctx, "c-1")).Info("event")
	assert.Contains(t, buf.String(), `"call_id":"c-1"`)

	assert.Equal(t, ctx, WithCall(ctx, ""))
}

func TestMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer

	r := gin.New()
	r.Use(Middleware(NewWriter("prod", &buf)))
	r.GET("/v1/calls/:call_id", func(c *gin.Context) {
		From(c.Request.Context()).Info("inside")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/calls/c-9", nil)
	req.Header.Set(HeaderRequestID, "rid-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-1", w.Header().Get(HeaderRequestID))
	assert.Contains(t, buf.String(), `"request_id":"rid-1"`)
	assert.Contains(t, buf.String(), `"call_id":"c-9"`)
	assert.Contains(t, buf.String(), `"path":"/v1/calls/:call_id"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls/c-10", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}
