package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"catapult-platform/internal/auth"
	"catapult-platform/internal/calls"
	"catapult-platform/internal/telephony"
	"catapult-platform/pkg/catapult"
	"catapult-platform/pkg/logger"
)

// Limiter caps concurrent outbound calls per workspace.
type Limiter interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Check reports whether one dependency is ready.
type Check func(ctx context.Context) error

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	Provider telephony.TelephonyProvider
	Numbers  telephony.WorkspaceResolver
	Calls    calls.Store
	Slots    Limiter
	Checks   map[string]Check
	Now      func() time.Time
}

// Register mounts the API on r. authMW runs before every /v1 route.
func (h Handlers) Register(r gin.IRouter, authMW gin.HandlerFunc) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	v1 := r.Group("/v1", authMW)
	v1.GET("/me", h.Me)
	v1.POST("/auth/token", auth.RequireRole(auth.RoleSuperAdmin), h.IssueToken)

	v1.GET("/calls", auth.RequireRole(auth.RoleViewer), h.ListCalls)
	v1.GET("/calls/:call_id", auth.RequireRole(auth.RoleViewer), h.GetCall)
	v1.POST("/calls", auth.RequireRole(auth.RoleOperator), h.CreateCall)
	v1.POST("/calls/:call_id/recording", auth.RequireRole(auth.RoleOperator), h.StartRecording)

	v1.POST("/messages", auth.RequireRole(auth.RoleOperator), h.SendMessage)
	v1.GET("/messages/:message_id", auth.RequireRole(auth.RoleViewer), h.GetMessage)

	v1.POST("/numbers", auth.RequireRole(auth.RoleOwner), h.BuyNumber)
	v1.DELETE("/numbers/:number", auth.RequireRole(auth.RoleOwner), h.ReleaseNumber)

	v1.GET("/cdr", auth.RequireRole(auth.RoleViewer), h.FetchCDR)
}

// --- Health ---

func (h Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz runs every dependency check and reports each result.
func (h Handlers) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(gin.H, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			logger.FromGin(c).Warn("readiness check failed", "check", name, "err", err)
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"checks": results})
}

// --- Auth ---

type issueTokenRequest struct {
	Subject     string    `json:"subject"`
	WorkspaceID string    `json:"workspace_id"`
	Role        auth.Role `json:"role"`
	TTLSeconds  int       `json:"ttl_seconds,omitempty"`
}

func (h Handlers) Me(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"subject": id.Subject, "workspace_id": id.WorkspaceID, "role": id.Role})
}

// IssueToken mints an access token for any workspace.
// RBAC: super_admin.
func (h Handlers) IssueToken(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req issueTokenRequest
	if !bind(c, &req) {
		return
	}
	tok, err := h.Auth.Issue(h.now(), req.Subject, req.WorkspaceID, req.Role, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": tok, "token_type": "Bearer"})
}

// --- Calls ---

func (h Handlers) ListCalls(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 1000 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}
	list, err := h.Calls.ListCalls(c.Request.Context(), id.WorkspaceID, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		list = []calls.Call{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": list})
}

func (h Handlers) GetCall(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	call, err := h.Calls.GetCall(c.Request.Context(), id.WorkspaceID, c.Param("call_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// CreateCall places an outbound call from one of the workspace's numbers.
// Each workspace may hold a limited number of calls at once.
func (h Handlers) CreateCall(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req createCallRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if !h.owns(c, id.WorkspaceID, req.From) {
		return
	}

	if h.Slots != nil {
		ok, err := h.Slots.Acquire(ctx, id.WorkspaceID)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "concurrent call limit reached"})
			return
		}
	}

	res, err := h.Provider.StartOutboundCall(ctx, telephony.OutboundCallRequest{
		WorkspaceID:      id.WorkspaceID,
		From:             req.From,
		To:               req.To,
		RecordingEnabled: req.RecordingEnabled,
		TimeoutSeconds:   req.TimeoutSeconds,
	})
	if err != nil {
		if h.Slots != nil {
			if rerr := h.Slots.Release(ctx, id.WorkspaceID); rerr != nil {
				logger.FromGin(c).Warn("call slot release failed", "err", rerr)
			}
		}
		h.fail(c, err)
		return
	}

	// Callbacks for a fast call can land before this write. Keep their
	// status and give back the slot if the call already ended.
	now := h.now()
	var ended bool
	call, err := h.Calls.UpdateCall(ctx, id.WorkspaceID, res.ProviderCallID, func(cl *calls.Call, found bool) bool {
		if !found {
			cl.Status = calls.CallStatusQueued
			cl.CreatedAt = now
			cl.UpdatedAt = now
		}
		ended = found && cl.Direction != calls.DirectionOutbound && cl.Status.Terminal()
		cl.Direction = calls.DirectionOutbound
		cl.From = req.From
		cl.To = req.To
		return true
	})
	if err != nil {
		logger.FromGin(c).Error("call placed but not stored", "call_id", res.ProviderCallID, "err", err)
		call = calls.Call{
			CallID:      res.ProviderCallID,
			WorkspaceID: id.WorkspaceID,
			Direction:   calls.DirectionOutbound,
			From:        req.From,
			To:          req.To,
			Status:      calls.CallStatusQueued,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	if ended && h.Slots != nil {
		if rerr := h.Slots.Release(ctx, id.WorkspaceID); rerr != nil {
			logger.FromGin(c).Warn("call slot release failed", "err", rerr)
		}
	}
	logger.FromGin(c).Info("outbound call placed", "call_id", call.CallID, "workspace_id", id.WorkspaceID)
	c.JSON(http.StatusCreated, call)
}

func (h Handlers) StartRecording(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	call, err := h.Calls.GetCall(ctx, id.WorkspaceID, c.Param("call_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if call.Status.Terminal() {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call has ended"})
		return
	}
	res, err := h.Provider.StartRecording(ctx, telephony.StartRecordingRequest{
		WorkspaceID:    id.WorkspaceID,
		ProviderCallID: call.CallID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Messages ---

func (h Handlers) SendMessage(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if !h.owns(c, id.WorkspaceID, req.From) {
		return
	}

	res, err := h.Provider.SendMessage(ctx, telephony.SendMessageRequest{
		WorkspaceID: id.WorkspaceID,
		From:        req.From,
		To:          req.To,
		Text:        req.Text,
		Media:       req.Media,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	now := h.now()
	msg := calls.Message{
		MessageID:   res.ProviderMessageID,
		WorkspaceID: id.WorkspaceID,
		Direction:   calls.DirectionOutbound,
		From:        req.From,
		To:          req.To,
		Text:        req.Text,
		Media:       req.Media,
		State:       "sending",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Calls.SaveMessage(ctx, msg); err != nil {
		logger.FromGin(c).Error("message sent but not stored", "message_id", msg.MessageID, "err", err)
	}
	c.JSON(http.StatusAccepted, msg)
}

func (h Handlers) GetMessage(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	msg, err := h.Calls.GetMessage(c.Request.Context(), id.WorkspaceID, c.Param("message_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// --- Numbers ---

func (h Handlers) BuyNumber(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req buyNumberRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.Provider.BuyNumber(c.Request.Context(), telephony.BuyNumberRequest{
		WorkspaceID:   id.WorkspaceID,
		NumberType:    req.NumberType,
		AreaCode:      req.AreaCode,
		State:         req.State,
		DesiredNumber: req.DesiredNumber,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	logger.FromGin(c).Info("number allocated", "number", res.Number, "workspace_id", id.WorkspaceID)
	c.JSON(http.StatusCreated, res)
}

// ReleaseNumber returns one of the workspace's numbers to inventory.
// RBAC: owner or super_admin.
func (h Handlers) ReleaseNumber(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	number := c.Param("number")
	if !h.owns(c, id.WorkspaceID, number) {
		return
	}
	res, err := h.Provider.ReleaseNumber(c.Request.Context(), telephony.ReleaseNumberRequest{
		WorkspaceID: id.WorkspaceID,
		Number:      number,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- CDR ---

// FetchCDR lists call detail records. from and to accept most common date
// formats and default to the last 24 hours.
func (h Handlers) FetchCDR(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	from, to, err := cdrWindow(c.Query("from"), c.Query("to"), h.now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.Provider.FetchCDR(c.Request.Context(), telephony.FetchCDRRequest{
		WorkspaceID:    id.WorkspaceID,
		From:           from,
		To:             to,
		ProviderCallID: c.Query("call_id"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- helpers ---

func identity(c *gin.Context) (auth.Identity, bool) {
	id, err := auth.FromContext(c.Request.Context())
	if err != nil || id.WorkspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return auth.Identity{}, false
	}
	return id, true
}

// owns aborts unless number is assigned to workspaceID.
func (h Handlers) owns(c *gin.Context, workspaceID, number string) bool {
	if h.Numbers == nil {
		return true
	}
	owner, err := h.Numbers.WorkspaceForNumber(c.Request.Context(), number)
	if errors.Is(err, telephony.ErrUnknownNumber) || (err == nil && owner != workspaceID) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "number not assigned to workspace"})
		return false
	}
	if err != nil {
		h.fail(c, err)
		return false
	}
	return true
}

// fail maps err to a response. Provider errors keep their code and message
// so callers can act on them.
func (h Handlers) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var apiErr *catapult.APIError
	switch {
	case errors.Is(err, calls.ErrNotFound), catapult.IsNotFound(err):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, telephony.ErrWorkspaceRequired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && !apiErr.Retryable():
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": apiErr.Message, "code": apiErr.Code})
	case errors.Is(err, context.DeadlineExceeded), catapult.IsRetryable(err):
		logger.FromGin(c).Warn("provider unavailable", "err", err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "provider unavailable"})
	default:
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}
