package main

import (
	"github.com/gin-gonic/gin"

	"catapult-platform/internal/auth"
	"catapult-platform/internal/calls"
	"catapult-platform/internal/httpapi"
	"catapult-platform/internal/telephony"
)

type deps struct {
	auth     *auth.Manager
	provider telephony.TelephonyProvider
	numbers  telephony.WorkspaceResolver
	store    calls.Store
	slots    httpapi.Limiter
	dedupe   telephony.Deduper
	checks   map[string]httpapi.Check
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	// Catapult callbacks (public). Attribution relies on the number
	// table and the workspace tag set on outbound resources.
	telephony.CallbackHandler{
		Provider:   d.provider,
		Workspaces: d.numbers,
		Dedupe:     d.dedupe,
		Events:     calls.Recorder{Store: d.store, Slots: d.slots},
	}.Register(r)

	httpapi.Handlers{
		Auth:     d.auth,
		Provider: d.provider,
		Numbers:  d.numbers,
		Calls:    d.store,
		Slots:    d.slots,
		Checks:   d.checks,
	}.Register(r, auth.RequireAccessToken(d.auth))
}
