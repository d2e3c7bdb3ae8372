package catapult

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// CallService controls voice calls.
type CallService service

// CallState is the lifecycle state of a call.
type CallState string

const (
	CallStateStarted      CallState = "started"
	CallStateRejected     CallState = "rejected"
	CallStateActive       CallState = "active"
	CallStateCompleted    CallState = "completed"
	CallStateTransferring CallState = "transferring"
	CallStateError        CallState = "error"
)

// Call is a voice call as reported by the API.
type Call struct {
	ID                   string     `json:"id"`
	Direction            string     `json:"direction"`
	From                 string     `json:"from"`
	To                   string     `json:"to"`
	State                CallState  `json:"state"`
	StartTime            time.Time  `json:"startTime"`
	ActiveTime           *time.Time `json:"activeTime,omitempty"`
	EndTime              *time.Time `json:"endTime,omitempty"`
	ChargeableDuration   int        `json:"chargeableDuration"`
	RecordingEnabled     bool       `json:"recordingEnabled"`
	RecordingFileFormat  string     `json:"recordingFileFormat,omitempty"`
	TranscriptionEnabled bool       `json:"transcriptionEnabled"`
	CallbackURL          string     `json:"callbackUrl,omitempty"`
	Bridge               string     `json:"bridge,omitempty"`
	Conference           string     `json:"conference,omitempty"`
	Events               string     `json:"events,omitempty"`
	Recordings           string     `json:"recordings,omitempty"`
	Tag                  string     `json:"tag,omitempty"`
}

// CreateCallRequest places an outbound call.
type CreateCallRequest struct {
	From                 string `json:"from"`
	To                   string `json:"to"`
	CallTimeout          int    `json:"callTimeout,omitempty"`
	CallbackURL          string `json:"callbackUrl,omitempty"`
	CallbackTimeout      int    `json:"callbackTimeout,omitempty"`
	CallbackHTTPMethod   string `json:"callbackHttpMethod,omitempty"`
	FallbackURL          string `json:"fallbackUrl,omitempty"`
	BridgeID             string `json:"bridgeId,omitempty"`
	ConferenceID         string `json:"conferenceId,omitempty"`
	RecordingEnabled     bool   `json:"recordingEnabled,omitempty"`
	RecordingMaxDuration int    `json:"recordingMaxDuration,omitempty"`
	RecordingFileFormat  string `json:"recordingFileFormat,omitempty"`
	TranscriptionEnabled bool   `json:"transcriptionEnabled,omitempty"`
	Tag                  string `json:"tag,omitempty"`
}

// UpdateCallRequest changes the state or settings of a call.
type UpdateCallRequest struct {
	State               CallState `json:"state,omitempty"`
	RecordingEnabled    *bool     `json:"recordingEnabled,omitempty"`
	RecordingFileFormat string    `json:"recordingFileFormat,omitempty"`
	TransferTo          string    `json:"transferTo,omitempty"`
	TransferCallerID    string    `json:"transferCallerId,omitempty"`
	WhisperAudio        *Audio    `json:"whisperAudio,omitempty"`
	CallbackURL         string    `json:"callbackUrl,omitempty"`
	Tag                 string    `json:"tag,omitempty"`
}

// Audio plays a file or speaks a sentence. Set either FileURL or Sentence.
type Audio struct {
	FileURL     string `json:"fileUrl,omitempty"`
	Sentence    string `json:"sentence,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Locale      string `json:"locale,omitempty"`
	Voice       string `json:"voice,omitempty"`
	LoopEnabled bool   `json:"loopEnabled,omitempty"`
	Tag         string `json:"tag,omitempty"`
}

// CallQuery filters List.
type CallQuery struct {
	BridgeID     string
	ConferenceID string
	From         string
	To           string
	SortOrder    string
	Page         int
	Size         int
}

// Params returns the query parameters.
func (q CallQuery) Params() Query {
	return Query{
		{"bridgeId", q.BridgeID},
		{"conferenceId", q.ConferenceID},
		{"from", q.From},
		{"to", q.To},
		{"sortOrder", q.SortOrder},
		{"page", positive(q.Page)},
		{"size", positive(q.Size)},
	}
}

// CallEvent is one entry of a call's event history.
type CallEvent struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
	Name string    `json:"name"`
	Data string    `json:"data,omitempty"`
}

// Gather collects DTMF digits on a call.
type Gather struct {
	ID            string     `json:"id"`
	State         string     `json:"state"`
	Reason        string     `json:"reason,omitempty"`
	CreatedTime   time.Time  `json:"createdTime"`
	CompletedTime *time.Time `json:"completedTime,omitempty"`
	Call          string     `json:"call,omitempty"`
	Digits        string     `json:"digits,omitempty"`
}

// CreateGatherRequest starts collecting digits.
type CreateGatherRequest struct {
	MaxDigits         int    `json:"maxDigits,omitempty"`
	InterDigitTimeout int    `json:"interDigitTimeout,omitempty"`
	TerminatingDigits string `json:"terminatingDigits,omitempty"`
	Tag               string `json:"tag,omitempty"`
	Prompt            *Audio `json:"prompt,omitempty"`
}

func (s *CallService) path(id string, sub string) string {
	return s.client.userPath("/calls/%s%s", url.PathEscape(id), sub)
}

// Create places an outbound call and returns its id.
func (s *CallService) Create(ctx context.Context, req CreateCallRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.client.userPath("/calls"), req)
}

// Get returns a call.
func (s *CallService) Get(ctx context.Context, id string) (*Call, error) {
	var c Call
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, ""), nil, nil, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns one page of calls.
func (s *CallService) List(ctx context.Context, q CallQuery) ([]Call, error) {
	var out []Call
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/calls"), q.Params(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pages returns a pager over all calls matching q.
func (s *CallService) Pages(q CallQuery) *Pager[Call] {
	return NewPager[Call](s.client, s.client.userPath("/calls"), q.Params())
}

// Update changes a call.
func (s *CallService) Update(ctx context.Context, id string, req UpdateCallRequest) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id, ""), nil, req)
}

// Answer answers an incoming call.
func (s *CallService) Answer(ctx context.Context, id string) error {
	return s.Update(ctx, id, UpdateCallRequest{State: CallStateActive})
}

// Reject rejects an incoming call.
func (s *CallService) Reject(ctx context.Context, id string) error {
	return s.Update(ctx, id, UpdateCallRequest{State: CallStateRejected})
}

// Hangup completes an active call.
func (s *CallService) Hangup(ctx context.Context, id string) error {
	return s.Update(ctx, id, UpdateCallRequest{State: CallStateCompleted})
}

// Transfer transfers a call to another number and returns the id of the
// new outbound leg. whisper is optional.
func (s *CallService) Transfer(ctx context.Context, id, to string, whisper *Audio) (string, error) {
	return s.client.PostAndExtractID(ctx, s.path(id, ""), UpdateCallRequest{
		State:        CallStateTransferring,
		TransferTo:   to,
		WhisperAudio: whisper,
	})
}

// SetRecording turns recording on or off.
func (s *CallService) SetRecording(ctx context.Context, id string, enabled bool) error {
	return s.Update(ctx, id, UpdateCallRequest{RecordingEnabled: &enabled})
}

// PlayAudio plays a file or speaks a sentence on the call.
func (s *CallService) PlayAudio(ctx context.Context, id string, audio Audio) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id, "/audio"), nil, audio)
}

// SendDTMF sends digits on the call.
func (s *CallService) SendDTMF(ctx context.Context, id, digits string) error {
	body := struct {
		DTMFOut string `json:"dtmfOut"`
	}{DTMFOut: digits}
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id, "/dtmf"), nil, body)
}

// CreateGather starts collecting digits and returns the gather id.
func (s *CallService) CreateGather(ctx context.Context, id string, req CreateGatherRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.path(id, "/gather"), req)
}

// GetGather returns a gather.
func (s *CallService) GetGather(ctx context.Context, callID, gatherID string) (*Gather, error) {
	var g Gather
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(callID, "/gather/"+url.PathEscape(gatherID)), nil, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// StopGather completes a gather early.
func (s *CallService) StopGather(ctx context.Context, callID, gatherID string) error {
	body := struct {
		State string `json:"state"`
	}{State: "completed"}
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(callID, "/gather/"+url.PathEscape(gatherID)), nil, body)
}

// ListEvents returns the event history of a call.
func (s *CallService) ListEvents(ctx context.Context, id string) ([]CallEvent, error) {
	var out []CallEvent
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, "/events"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEvent returns one event of a call.
func (s *CallService) GetEvent(ctx context.Context, id, eventID string) (*CallEvent, error) {
	var e CallEvent
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, "/events/"+url.PathEscape(eventID)), nil, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListRecordings returns the recordings made on a call.
func (s *CallService) ListRecordings(ctx context.Context, id string) ([]Recording, error) {
	var out []Recording
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, "/recordings"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTranscriptions returns the transcriptions of a call's recordings.
func (s *CallService) ListTranscriptions(ctx context.Context, id string) ([]Transcription, error) {
	var out []Transcription
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, "/transcriptions"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
