package telephony

import (
	"context"
	"errors"
	"time"
)

// TelephonyProvider is the provider-agnostic interface used by business logic.
// Every request is workspace-scoped.
type TelephonyProvider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	HandleInboundCall(ctx context.Context, req InboundCallRequest) (InboundCallResult, error)

	BuyNumber(ctx context.Context, req BuyNumberRequest) (BuyNumberResult, error)
	ReleaseNumber(ctx context.Context, req ReleaseNumberRequest) (ReleaseNumberResult, error)

	StartRecording(ctx context.Context, req StartRecordingRequest) (StartRecordingResult, error)
	FetchCDR(ctx context.Context, req FetchCDRRequest) (FetchCDRResult, error)

	StartOutboundCall(ctx context.Context, req OutboundCallRequest) (OutboundCallResult, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (SendMessageResult, error)
}

// InboundRouter decides what happens to an inbound call.
type InboundRouter interface {
	RouteInboundCall(ctx context.Context, req InboundCallRequest) (InboundCallResult, error)
}

// WorkspaceResolver maps one of our numbers to the workspace that owns it.
type WorkspaceResolver interface {
	WorkspaceForNumber(ctx context.Context, number string) (string, error)
}

var (
	ErrWorkspaceRequired = errors.New("telephony: workspace_id required")
	ErrUnknownNumber     = errors.New("telephony: number not assigned to a workspace")
)

// InboundCallRequest is an incoming call announced by the provider.
type InboundCallRequest struct {
	WorkspaceID    string    `json:"workspace_id"`
	ProviderCallID string    `json:"provider_call_id"`
	From           string    `json:"from"`
	To             string    `json:"to"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// InboundCallResult tells the callback handler how to answer the provider.
type InboundCallResult struct {
	WorkspaceID string            `json:"workspace_id"`
	Action      InboundCallAction `json:"action"`

	// ConnectTo is used when Action == "connect". It is an E.164 number or
	// a sip: URI.
	ConnectTo string `json:"connect_to,omitempty"`
	// CallerID overrides the number presented to ConnectTo.
	CallerID string `json:"caller_id,omitempty"`
	// Greeting is spoken to the caller before the transfer.
	Greeting string `json:"greeting,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type InboundCallAction string

const (
	InboundCallActionReject  InboundCallAction = "reject"
	InboundCallActionConnect InboundCallAction = "connect"
	InboundCallActionHangup  InboundCallAction = "hangup"
)

type BuyNumberRequest struct {
	WorkspaceID string `json:"workspace_id"`

	// NumberType is "local" (default) or "tollFree".
	NumberType string `json:"number_type"`
	AreaCode   string `json:"area_code,omitempty"`
	State      string `json:"state,omitempty"`

	// DesiredNumber allocates a specific number instead of searching.
	DesiredNumber string `json:"desired_number,omitempty"`
}

type BuyNumberResult struct {
	WorkspaceID      string `json:"workspace_id"`
	Number           string `json:"number"`
	ProviderNumberID string `json:"provider_number_id"`
}

type ReleaseNumberRequest struct {
	WorkspaceID      string `json:"workspace_id"`
	Number           string `json:"number"`
	ProviderNumberID string `json:"provider_number_id,omitempty"`
}

type ReleaseNumberResult struct {
	WorkspaceID string `json:"workspace_id"`
	Released    bool   `json:"released"`
}

type StartRecordingRequest struct {
	WorkspaceID    string `json:"workspace_id"`
	ProviderCallID string `json:"provider_call_id"`
}

type StartRecordingResult struct {
	WorkspaceID string `json:"workspace_id"`
	Started     bool   `json:"started"`
}

type FetchCDRRequest struct {
	WorkspaceID string `json:"workspace_id"`

	// [From, To) window on the call start time.
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	ProviderCallID string `json:"provider_call_id,omitempty"`
}

type FetchCDRResult struct {
	WorkspaceID string `json:"workspace_id"`
	Records     []CDR  `json:"records"`
}

// CDR is a provider-agnostic call detail record.
type CDR struct {
	ProviderCallID string     `json:"provider_call_id"`
	From           string     `json:"from"`
	To             string     `json:"to"`
	Direction      string     `json:"direction"`
	State          string     `json:"state"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`

	DurationSeconds int `json:"duration_seconds"`
}

type OutboundCallRequest struct {
	WorkspaceID string `json:"workspace_id"`
	From        string `json:"from"`
	To          string `json:"to"`

	RecordingEnabled bool `json:"recording_enabled,omitempty"`
	TimeoutSeconds   int  `json:"timeout_seconds,omitempty"`
}

type OutboundCallResult struct {
	WorkspaceID    string `json:"workspace_id"`
	ProviderCallID string `json:"provider_call_id"`
}

type SendMessageRequest struct {
	WorkspaceID string   `json:"workspace_id"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Text        string   `json:"text"`
	Media       []string `json:"media,omitempty"`
}

type SendMessageResult struct {
	WorkspaceID       string `json:"workspace_id"`
	ProviderMessageID string `json:"provider_message_id"`
}
