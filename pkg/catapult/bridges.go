package catapult

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// BridgeService joins calls together.
type BridgeService service

// Bridge connects two or more calls.
type Bridge struct {
	ID            string     `json:"id"`
	State         string     `json:"state"`
	BridgeAudio   bool       `json:"bridgeAudio"`
	Calls         string     `json:"calls,omitempty"`
	CreatedTime   time.Time  `json:"createdTime"`
	ActivatedTime *time.Time `json:"activatedTime,omitempty"`
	CompletedTime *time.Time `json:"completedTime,omitempty"`
}

// BridgeRequest creates or updates a bridge.
type BridgeRequest struct {
	BridgeAudio bool     `json:"bridgeAudio"`
	CallIDs     []string `json:"callIds"`
}

func (s *BridgeService) path(id, sub string) string {
	return s.client.userPath("/bridges/%s%s", url.PathEscape(id), sub)
}

// Create creates a bridge and returns its id.
func (s *BridgeService) Create(ctx context.Context, req BridgeRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.client.userPath("/bridges"), req)
}

// Get returns a bridge.
func (s *BridgeService) Get(ctx context.Context, id string) (*Bridge, error) {
	var b Bridge
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, ""), nil, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns one page of bridges.
func (s *BridgeService) List(ctx context.Context, q PageQuery) ([]Bridge, error) {
	var out []Bridge
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/bridges"), q.Params(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the calls or audio setting of a bridge.
func (s *BridgeService) Update(ctx context.Context, id string, req BridgeRequest) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id, ""), nil, req)
}

// PlayAudio plays audio to every call on the bridge.
func (s *BridgeService) PlayAudio(ctx context.Context, id string, audio Audio) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id, "/audio"), nil, audio)
}

// ListCalls returns the calls on a bridge.
func (s *BridgeService) ListCalls(ctx context.Context, id string) ([]Call, error) {
	var out []Call
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, "/calls"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
