package routing

import "catapult-platform/internal/telephony"

// Decision is the provider-agnostic output of the routing engine.
type Decision struct {
	WorkspaceID string `json:"workspace_id"`

	Action    Action `json:"action"`
	ConnectTo string `json:"connect_to,omitempty"`
	CallerID  string `json:"caller_id,omitempty"`
	Greeting  string `json:"greeting,omitempty"`

	// Reason is for internal logs only.
	Reason string `json:"reason,omitempty"`
}

type Action string

const (
	ActionReject  Action = "reject"
	ActionConnect Action = "connect"
	ActionHangup  Action = "hangup"
)

// Result converts d to the telephony answer.
func (d Decision) Result() telephony.InboundCallResult {
	res := telephony.InboundCallResult{
		WorkspaceID: d.WorkspaceID,
		Reason:      d.Reason,
	}
	switch d.Action {
	case ActionConnect:
		res.Action = telephony.InboundCallActionConnect
		res.ConnectTo = d.ConnectTo
		res.CallerID = d.CallerID
		res.Greeting = d.Greeting
	case ActionHangup:
		res.Action = telephony.InboundCallActionHangup
	default:
		res.Action = telephony.InboundCallActionReject
	}
	return res
}
