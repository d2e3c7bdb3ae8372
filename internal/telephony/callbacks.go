package telephony

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catapult-platform/pkg/catapult/bxml"
	"catapult-platform/pkg/catapult/callback"
	"catapult-platform/pkg/logger"
)

// Deduper marks callback deliveries so retries are processed once.
type Deduper interface {
	MarkOnce(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// EventSink receives every new callback event attributed to a workspace.
type EventSink interface {
	Apply(ctx context.Context, workspaceID string, e callback.Event) error
}

// CallbackHandler serves the voice and messaging callback URLs. It parses
// events, drops redeliveries, attributes them to a workspace, and for
// incoming calls answers with BXML.
type CallbackHandler struct {
	Provider   TelephonyProvider
	Workspaces WorkspaceResolver
	Dedupe     Deduper
	Events     EventSink
	Now        func() time.Time
}

// Register mounts the callback routes. Catapult may use either GET or POST.
func (h CallbackHandler) Register(r gin.IRoutes) {
	r.POST(VoiceCallbackPath, h.Voice)
	r.GET(VoiceCallbackPath, h.Voice)
	r.POST(MessagingCallbackPath, h.Messaging)
	r.GET(MessagingCallbackPath, h.Messaging)
}

func (h CallbackHandler) Voice(c *gin.Context) {
	e, ok := h.parse(c)
	if !ok {
		return
	}
	ctx := logger.WithCall(c.Request.Context(), e.CallID)
	log := logger.From(ctx)

	if !h.first(ctx, e) {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	if e.EventType == callback.EventIncomingCall {
		h.incomingCall(ctx, c, e)
		return
	}

	workspaceID := e.Tag
	if workspaceID == "" {
		workspaceID, _ = h.resolve(ctx, e.To)
	}
	if workspaceID == "" {
		log.Warn("voice event for unknown workspace", "event", e.EventType, "to", e.To)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if !h.record(ctx, c, workspaceID, e) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h CallbackHandler) incomingCall(ctx context.Context, c *gin.Context, e callback.Event) {
	log := logger.From(ctx)

	workspaceID, err := h.resolve(ctx, e.To)
	if err != nil {
		log.Warn("inbound call to unassigned number", "to", e.To, "err", err)
		writeBXML(c, bxml.New(bxml.Reject{Reason: "rejected"}).String())
		return
	}
	if h.Provider == nil {
		_ = c.Error(errors.New("telephony provider not configured"))
		h.forget(ctx, e)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "telephony provider not configured"})
		return
	}
	if !h.record(ctx, c, workspaceID, e) {
		return
	}

	occurred := e.Time
	if occurred.IsZero() {
		occurred = h.now()
	}
	res, err := h.Provider.HandleInboundCall(ctx, InboundCallRequest{
		WorkspaceID:    workspaceID,
		ProviderCallID: e.CallID,
		From:           e.From,
		To:             e.To,
		OccurredAt:     occurred,
	})
	if err != nil {
		log.Error("inbound call routing failed", "err", err)
		res = InboundCallResult{WorkspaceID: workspaceID, Action: InboundCallActionReject, Reason: "routing_error"}
	}

	doc, err := RenderBXML(res)
	if err != nil {
		log.Error("bxml render failed", "err", err)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "bxml failed"})
		return
	}
	log.Info("inbound call routed", "workspace_id", workspaceID, "action", res.Action, "reason", res.Reason)
	writeBXML(c, doc)
}

func (h CallbackHandler) Messaging(c *gin.Context) {
	e, ok := h.parse(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := logger.From(ctx).With("message_id", e.MessageID)

	if !h.first(ctx, e) {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	workspaceID := e.Tag
	if workspaceID == "" {
		ours := e.To
		if e.Direction == "out" {
			ours = e.From
		}
		workspaceID, _ = h.resolve(ctx, ours)
	}
	if workspaceID == "" {
		log.Warn("message event for unknown workspace", "event", e.EventType, "to", e.To)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if !h.record(ctx, c, workspaceID, e) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h CallbackHandler) parse(c *gin.Context) (callback.Event, bool) {
	e, err := callback.Parse(c.Request)
	if err != nil {
		logger.FromGin(c).Warn("callback parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid callback"})
		return callback.Event{}, false
	}
	return e, true
}

// first reports whether e has not been seen before. When the deduper is
// unavailable the event is processed.
func (h CallbackHandler) first(ctx context.Context, e callback.Event) bool {
	if h.Dedupe == nil {
		return true
	}
	ok, err := h.Dedupe.MarkOnce(ctx, e.Key())
	if err != nil {
		logger.From(ctx).Warn("callback dedupe unavailable", "err", err)
		return true
	}
	return ok
}

func (h CallbackHandler) forget(ctx context.Context, e callback.Event) {
	if h.Dedupe == nil {
		return
	}
	if err := h.Dedupe.Forget(ctx, e.Key()); err != nil {
		logger.From(ctx).Warn("callback dedupe forget failed", "err", err)
	}
}

// record hands e to the sink. On failure it answers 500 so Catapult
// redelivers, and un-marks the event so the redelivery is processed.
func (h CallbackHandler) record(ctx context.Context, c *gin.Context, workspaceID string, e callback.Event) bool {
	if h.Events == nil {
		return true
	}
	if err := h.Events.Apply(ctx, workspaceID, e); err != nil {
		logger.From(ctx).Error("callback event not recorded", "event", e.EventType, "err", err)
		h.forget(ctx, e)
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "event not recorded"})
		return false
	}
	return true
}

func (h CallbackHandler) resolve(ctx context.Context, number string) (string, error) {
	if h.Workspaces == nil {
		return "", ErrUnknownNumber
	}
	return h.Workspaces.WorkspaceForNumber(ctx, number)
}

func (h CallbackHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func writeBXML(c *gin.Context, doc string) {
	c.Data(http.StatusOK, bxml.ContentType, []byte(doc))
}
