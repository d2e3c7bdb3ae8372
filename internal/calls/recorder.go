package calls

import (
	"context"
	"errors"
	"time"

	"catapult-platform/pkg/catapult/callback"
	"catapult-platform/pkg/logger"
)

// SlotReleaser frees a concurrent-call slot held by a workspace.
type SlotReleaser interface {
	Release(ctx context.Context, key string) error
}

// Recorder applies callback events to the Store. It implements
// telephony.EventSink.
type Recorder struct {
	Store Store
	Slots SlotReleaser
	Now   func() time.Time
}

// Apply updates the call or message e refers to. Events for calls the
// platform has not seen create the row.
func (r Recorder) Apply(ctx context.Context, workspaceID string, e callback.Event) error {
	if workspaceID == "" {
		return errors.New("calls: workspace_id required")
	}
	if e.IsMessaging() {
		return r.applyMessage(ctx, workspaceID, e)
	}
	if e.CallID == "" {
		return nil
	}

	at := e.Time
	if at.IsZero() {
		at = r.now()
	}

	var release bool
	_, err := r.Store.UpdateCall(ctx, workspaceID, e.CallID, func(c *Call, found bool) bool {
		if !found {
			*c = Call{
				CallID:      e.CallID,
				WorkspaceID: workspaceID,
				Direction:   DirectionInbound,
				From:        e.From,
				To:          e.To,
				Status:      CallStatusRinging,
				CreatedAt:   at,
			}
		}
		wasTerminal := c.Status.Terminal()
		if !transition(c, e, at) {
			return false
		}
		c.UpdatedAt = at
		release = !wasTerminal && c.Status.Terminal() && c.Direction == DirectionOutbound
		return true
	})
	if err != nil {
		return err
	}

	if release && r.Slots != nil {
		if err := r.Slots.Release(ctx, workspaceID); err != nil {
			logger.From(ctx).Warn("call slot release failed", "workspace_id", workspaceID, "err", err)
		}
	}
	return nil
}

// transition applies e to c and reports whether c changed.
func transition(c *Call, e callback.Event, at time.Time) bool {
	switch e.EventType {
	case callback.EventIncomingCall:
		return c.UpdatedAt.IsZero()
	case callback.EventAnswer:
		if c.Status.Terminal() {
			return false
		}
		c.Status = CallStatusInProgress
		c.AnsweredAt = &at
		return true
	case callback.EventHangup:
		if c.Status.Terminal() {
			return false
		}
		c.Cause = e.Cause
		c.Status = StatusForCause(e.Cause)
		if c.AnsweredAt == nil && c.Status == CallStatusCompleted {
			c.Status = CallStatusNoAnswer
		}
		switch {
		case e.Duration > 0:
			c.DurationSeconds = e.Duration
		case c.AnsweredAt != nil:
			c.DurationSeconds = int(at.Sub(*c.AnsweredAt).Seconds())
		}
		return true
	case callback.EventRecording:
		if e.RecordingURI == "" {
			return false
		}
		c.RecordingURL = e.RecordingURI
		return true
	case callback.EventTimeout:
		if c.Status.Terminal() {
			return false
		}
		c.Status = CallStatusNoAnswer
		return true
	}
	return false
}

func (r Recorder) applyMessage(ctx context.Context, workspaceID string, e callback.Event) error {
	if e.MessageID == "" {
		return nil
	}
	at := e.Time
	if at.IsZero() {
		at = r.now()
	}

	m, err := r.Store.GetMessage(ctx, workspaceID, e.MessageID)
	switch {
	case errors.Is(err, ErrNotFound):
		dir := DirectionInbound
		if e.Direction == "out" {
			dir = DirectionOutbound
		}
		m = Message{
			MessageID:   e.MessageID,
			WorkspaceID: workspaceID,
			Direction:   dir,
			From:        e.From,
			To:          e.To,
			Text:        e.Text,
			Media:       e.Media,
			CreatedAt:   at,
		}
	case err != nil:
		return err
	}

	state := e.DeliveryState
	if state == "" {
		state = e.State
	}
	if state != "" {
		m.State = state
	}
	m.UpdatedAt = at
	return r.Store.SaveMessage(ctx, m)
}

func (r Recorder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}
