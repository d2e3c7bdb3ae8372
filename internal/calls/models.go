package calls

import (
	"strings"
	"time"
)

// Call represents a workspace-scoped phone call.
//
// CallID is the provider's call id. WorkspaceID is required on every row.
type Call struct {
	CallID      string    `json:"call_id" db:"call_id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Direction   Direction `json:"direction" db:"direction"`

	From string `json:"from" db:"from_number"`
	To   string `json:"to" db:"to_number"`

	Status CallStatus `json:"status" db:"status"`
	Cause  string     `json:"cause,omitempty" db:"cause"`

	// Duration is the talk time in seconds.
	DurationSeconds int        `json:"duration" db:"duration"`
	AnsweredAt      *time.Time `json:"answered_at,omitempty" db:"answered_at"`

	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCanceled   CallStatus = "canceled"
)

// Terminal reports whether no further transitions are expected.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled:
		return true
	}
	return false
}

// StatusForCause maps a hangup cause to a final status.
func StatusForCause(cause string) CallStatus {
	switch strings.ToUpper(cause) {
	case "", "NORMAL_CLEARING":
		return CallStatusCompleted
	case "USER_BUSY":
		return CallStatusBusy
	case "NO_ANSWER", "NO_USER_RESPONSE":
		return CallStatusNoAnswer
	case "ORIGINATOR_CANCEL", "CALL_REJECTED":
		return CallStatusCanceled
	default:
		return CallStatusFailed
	}
}

// Message is a workspace-scoped SMS or MMS.
type Message struct {
	MessageID   string    `json:"message_id" db:"message_id"`
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	Direction   Direction `json:"direction" db:"direction"`

	From  string   `json:"from" db:"from_number"`
	To    string   `json:"to" db:"to_number"`
	Text  string   `json:"text,omitempty" db:"text"`
	Media []string `json:"media,omitempty" db:"-"`

	State string `json:"state" db:"state"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
