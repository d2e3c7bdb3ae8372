package catapult

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// ConferenceService manages conferences and their members.
type ConferenceService service

// Conference is a multi-party call.
type Conference struct {
	ID            string     `json:"id"`
	State         string     `json:"state"`
	From          string     `json:"from"`
	CreatedTime   time.Time  `json:"createdTime"`
	CompletedTime *time.Time `json:"completedTime,omitempty"`
	ActiveMembers int        `json:"activeMembers"`
	Hold          bool       `json:"hold"`
	Mute          bool       `json:"mute"`
	CallbackURL   string     `json:"callbackUrl,omitempty"`
	Tag           string     `json:"tag,omitempty"`
}

// CreateConferenceRequest starts a conference.
type CreateConferenceRequest struct {
	From               string `json:"from"`
	CallbackURL        string `json:"callbackUrl,omitempty"`
	CallbackTimeout    int    `json:"callbackTimeout,omitempty"`
	CallbackHTTPMethod string `json:"callbackHttpMethod,omitempty"`
	FallbackURL        string `json:"fallbackUrl,omitempty"`
	Tag                string `json:"tag,omitempty"`
}

// UpdateConferenceRequest changes a conference. Set State to "completed"
// to end it.
type UpdateConferenceRequest struct {
	State       string `json:"state,omitempty"`
	Mute        *bool  `json:"mute,omitempty"`
	Hold        *bool  `json:"hold,omitempty"`
	CallbackURL string `json:"callbackUrl,omitempty"`
	Tag         string `json:"tag,omitempty"`
}

// ConferenceMember is a call joined to a conference.
type ConferenceMember struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	AddedTime   time.Time  `json:"addedTime"`
	RemovedTime *time.Time `json:"removedTime,omitempty"`
	Hold        bool       `json:"hold"`
	Mute        bool       `json:"mute"`
	JoinTone    bool       `json:"joinTone"`
	LeavingTone bool       `json:"leavingTone"`
	Call        string     `json:"call,omitempty"`
}

// AddMemberRequest joins a call to a conference.
type AddMemberRequest struct {
	CallID      string `json:"callId"`
	JoinTone    bool   `json:"joinTone,omitempty"`
	LeavingTone bool   `json:"leavingTone,omitempty"`
	Mute        bool   `json:"mute,omitempty"`
	Hold        bool   `json:"hold,omitempty"`
}

// UpdateMemberRequest changes a member. Set State to "completed" to
// remove it.
type UpdateMemberRequest struct {
	State string `json:"state,omitempty"`
	Mute  *bool  `json:"mute,omitempty"`
	Hold  *bool  `json:"hold,omitempty"`
}

func (s *ConferenceService) path(id, sub string) string {
	return s.client.userPath("/conferences/%s%s", url.PathEscape(id), sub)
}

func (s *ConferenceService) memberPath(id, memberID, sub string) string {
	return s.path(id, "/members/"+url.PathEscape(memberID)+sub)
}

// Create starts a conference and returns its id.
func (s *ConferenceService) Create(ctx context.Context, req CreateConferenceRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.client.userPath("/conferences"), req)
}

// Get returns a conference.
func (s *ConferenceService) Get(ctx context.Context, id string) (*Conference, error) {
	var c Conference
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, ""), nil, nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Update changes a conference.
func (s *ConferenceService) Update(ctx context.Context, id string, req UpdateConferenceRequest) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id, ""), nil, req)
}

// PlayAudio plays audio to every member.
func (s *ConferenceService) PlayAudio(ctx context.Context, id string, audio Audio) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id, "/audio"), nil, audio)
}

// AddMember joins a call to the conference and returns the member id.
func (s *ConferenceService) AddMember(ctx context.Context, id string, req AddMemberRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.path(id, "/members"), req)
}

// ListMembers returns the conference members.
func (s *ConferenceService) ListMembers(ctx context.Context, id string) ([]ConferenceMember, error) {
	var out []ConferenceMember
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, "/members"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMember returns one member.
func (s *ConferenceService) GetMember(ctx context.Context, id, memberID string) (*ConferenceMember, error) {
	var m ConferenceMember
	if err := s.client.SendJSON(ctx, http.MethodGet, s.memberPath(id, memberID, ""), nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMember changes one member.
func (s *ConferenceService) UpdateMember(ctx context.Context, id, memberID string, req UpdateMemberRequest) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.memberPath(id, memberID, ""), nil, req)
}

// PlayAudioToMember plays audio to one member only.
func (s *ConferenceService) PlayAudioToMember(ctx context.Context, id, memberID string, audio Audio) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.memberPath(id, memberID, "/audio"), nil, audio)
}
