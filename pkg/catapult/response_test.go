package catapult

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostAndExtractID(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/users/u-1/calls", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Location", "/v1/users/u/calls/abc123")
		w.WriteHeader(http.StatusCreated)
	})

	id, err := c.PostAndExtractID(context.Background(), "/users/u-1/calls", map[string]string{"from": "+1", "to": "+2"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, "+1", gotBody["from"])
}

func TestPostAndExtractID_AbsoluteLocation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://api.catapult.inetwork.com/v1/users/u/messages/m-42/")
		w.WriteHeader(http.StatusCreated)
	})

	id, err := c.Messages.Send(context.Background(), SendMessageRequest{From: "+1", To: "+2", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m-42", id)
}

func TestPostAndExtractID_MissingLocation(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	id, err := c.PostAndExtractID(context.Background(), "/users/u-1/bridges", BridgeRequest{})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSendJSON_APIError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":"bad-request","message":"x"}`)
	})

	var out Call
	err := c.SendJSON(context.Background(), http.MethodGet, "/users/u-1/calls/c-1", nil, nil, &out)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bad-request", apiErr.Code)
	assert.Equal(t, "x", apiErr.Message)
	assert.False(t, apiErr.Retryable())
}

func TestSendJSON_APIErrorWithoutBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Calls.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestSendJSON_RetryableStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})
			_, err := c.Account.Get(context.Background())
			assert.True(t, IsRetryable(err))
		})
	}
}

func TestSendJSON_SerializationError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id": "c-1",`)
	})

	_, err := c.Calls.Get(context.Background(), "c-1")
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "decode", serr.Op)
}

func TestSendJSON_EncodeError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	})

	err := c.SendJSONNoResult(context.Background(), http.MethodPost, "/x", nil, map[string]any{"bad": make(chan int)})
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "encode", serr.Op)
}

func TestSendJSON_EmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	out := Account{Balance: "unchanged"}
	require.NoError(t, c.SendJSON(context.Background(), http.MethodGet, "/users/u-1/account", nil, nil, &out))
	assert.Equal(t, "unchanged", out.Balance)
}

func TestSend_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	c, err := New("u-1", "token", "secret", WithTransport(transportFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})))
	require.NoError(t, err)

	_, err = c.Account.Get(context.Background())
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsRetryable(err))
}

func TestSend_HonorsCancellation(t *testing.T) {
	c, err := New("u-1", "token", "secret", WithTransport(transportFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Calls.Get(ctx, "c-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryable(err))
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestSendJSON_ClosesBody(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader(`{"balance":"10.00","accountType":"pre-pay"}`)}
	c, err := New("u-1", "token", "secret", WithTransport(transportFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body}, nil
	})))
	require.NoError(t, err)

	a, err := c.Account.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.00", a.Balance)
	assert.True(t, body.closed)
}

func TestConcurrentCallsDoNotInterfere(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		_ = json.NewEncoder(w).Encode(Call{ID: id, Tag: r.URL.Query().Get("tag")})
	})

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c-%d", i)
			call, err := c.Calls.Get(context.Background(), id)
			if err != nil {
				errs <- err
				return
			}
			if call.ID != id {
				errs <- fmt.Errorf("got %q want %q", call.ID, id)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestIDFromLocation(t *testing.T) {
	tests := map[string]string{
		"":                                  "",
		"/v1/users/u/calls/abc123":          "abc123",
		"/v1/users/u/calls/abc123/":         "abc123",
		"https://host/v1/users/u/bridges/b": "b",
		"plain":                             "plain",
		"http://localhost":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, idFromLocation(in), "location %q", in)
	}
}
