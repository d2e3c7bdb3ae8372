package catapult

import (
	"context"
	"net/http"
	"strings"
)

// Pager walks a list endpoint page by page, following the
// `Link: <...>; rel="next"` header the API returns.
type Pager[T any] struct {
	client  *Client
	path    string
	query   Query
	version string

	started bool
	nextURL string
}

// NewPager returns a pager over the list endpoint at path.
func NewPager[T any](c *Client, path string, query Query, opts ...RequestOption) *Pager[T] {
	o := applyRequestOptions(opts)
	return &Pager[T]{client: c, path: path, query: query, version: o.version}
}

// HasNext reports whether Next may return another page.
func (p *Pager[T]) HasNext() bool {
	return !p.started || p.nextURL != ""
}

// Next fetches the following page. It returns ErrNoMorePages once the
// last page has been consumed.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	var (
		req *http.Request
		err error
	)
	switch {
	case !p.started:
		req, err = p.client.BuildRequest(ctx, http.MethodGet, p.path, p.query, nil, p.version)
	case p.nextURL != "":
		req, err = p.client.newRequest(ctx, http.MethodGet, p.nextURL, nil)
	default:
		return nil, ErrNoMorePages
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var page []T
	if err := decodeJSON(resp.Body, &page); err != nil {
		return nil, err
	}
	p.started = true
	p.nextURL = ""
	if next := nextLink(resp.Header.Values("Link")); next != "" {
		// Relative targets resolve against the page just fetched; the
		// base URL check in newRequest still applies.
		p.nextURL = next
		if u, err := req.URL.Parse(next); err == nil {
			p.nextURL = u.String()
		}
	}
	return page, nil
}

// All drains the pager.
func (p *Pager[T]) All(ctx context.Context) ([]T, error) {
	var out []T
	for p.HasNext() {
		page, err := p.Next(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, page...)
	}
	return out, nil
}

// nextLink extracts the rel="next" target from Link header values. Targets
// are delimited by angle brackets and quoted parameters may contain commas,
// so the header is scanned rather than split.
func nextLink(values []string) string {
	for _, v := range values {
		for len(v) > 0 {
			v = strings.TrimLeft(v, " \t,")
			if !strings.HasPrefix(v, "<") {
				// Malformed entry: skip to the next one.
				i := strings.IndexByte(v, ',')
				if i < 0 {
					break
				}
				v = v[i+1:]
				continue
			}
			end := strings.IndexByte(v, '>')
			if end < 0 {
				break
			}
			target := v[1:end]
			var params string
			params, v = splitLinkParams(v[end+1:])
			if hasNextRel(params) {
				return target
			}
		}
	}
	return ""
}

// splitLinkParams returns the parameters of one link-value and the rest of
// the header after its terminating comma.
func splitLinkParams(s string) (params, rest string) {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quoted {
				i++
			}
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

func hasNextRel(params string) bool {
	for _, attr := range strings.Split(params, ";") {
		name, value, ok := strings.Cut(attr, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "rel") {
			continue
		}
		for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
			if strings.EqualFold(rel, "next") {
				return true
			}
		}
	}
	return false
}
