package catapult

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is kept on APIError.
const maxErrorBody = 64 << 10

type errorPayload struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Send dispatches req through the transport. Transport failures return
// *TransportError. Non-2xx responses are read, closed and returned as
// *APIError. On success the caller owns the response body.
func (c *Client) Send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.transport.Do(req)
	if err != nil {
		c.logger.Debug("catapult request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"err", err,
		)
		return nil, &TransportError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	c.logger.Debug("catapult request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", float64(time.Since(start).Milliseconds()),
	)
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: body}
	var payload errorPayload
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Category = payload.Category
		apiErr.Code = payload.Code
		apiErr.Message = payload.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// SendJSON sends in (when non-nil) as a JSON body and decodes the response
// into out (when non-nil). The response body is read once and closed.
func (c *Client) SendJSON(ctx context.Context, method, path string, query Query, in, out any, opts ...RequestOption) error {
	resp, err := c.sendJSON(ctx, method, path, query, in, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp.Body, out)
}

// SendJSONNoResult is SendJSON for endpoints with an empty success body.
func (c *Client) SendJSONNoResult(ctx context.Context, method, path string, query Query, in any, opts ...RequestOption) error {
	return c.SendJSON(ctx, method, path, query, in, nil, opts...)
}

// PostAndExtractID POSTs in as JSON and returns the id of the created
// resource, taken from the last segment of the Location header. A response
// without Location yields "".
func (c *Client) PostAndExtractID(ctx context.Context, path string, in any, opts ...RequestOption) (string, error) {
	resp, err := c.sendJSON(ctx, http.MethodPost, path, nil, in, opts)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return idFromLocation(resp.Header.Get("Location")), nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, query Query, in any, opts []RequestOption) (*http.Response, error) {
	o := applyRequestOptions(opts)

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, &SerializationError{Op: "encode", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := c.BuildRequest(ctx, method, path, query, body, o.version)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Send(req)
}

func decodeJSON(r io.Reader, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return &TransportError{Op: "read", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &SerializationError{Op: "decode", Err: err}
	}
	return nil
}

// idFromLocation returns the last path segment of a Location value.
func idFromLocation(location string) string {
	p := strings.TrimSpace(location)
	if p == "" {
		return ""
	}
	if u, err := url.Parse(p); err == nil {
		p = u.Path
	}
	p = strings.TrimRight(p, "/")
	return p[strings.LastIndex(p, "/")+1:]
}
