package routing

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"catapult-platform/internal/telephony"
)

// Engine routes inbound calls from a route Table. It also answers which
// workspace owns a number. The table can be swapped at runtime.
//
// Priority:
//  1. Active override
//  2. Entry action (reject, hangup)
//  3. Weighted destination selection
type Engine struct {
	mu       sync.RWMutex
	byNumber map[string]NumberRoute

	rngMu sync.Mutex
	rng   *rand.Rand

	Now func() time.Time
}

// NewEngine returns an engine over t. A nil rng is seeded from the clock.
func NewEngine(t *Table, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{rng: rng, Now: time.Now}
	e.Replace(t)
	return e
}

// LoadEngine builds an engine from the route file at path.
func LoadEngine(fsys afero.Fs, path string) (*Engine, error) {
	t, err := LoadTable(fsys, path)
	if err != nil {
		return nil, err
	}
	return NewEngine(t, nil), nil
}

// Replace swaps in a new table.
func (e *Engine) Replace(t *Table) {
	m := make(map[string]NumberRoute)
	if t != nil {
		for _, r := range t.Numbers {
			m[r.Number] = r
		}
	}
	e.mu.Lock()
	e.byNumber = m
	e.mu.Unlock()
}

// Reload re-reads the route file. On error the current table stays.
func (e *Engine) Reload(fsys afero.Fs, path string) error {
	t, err := LoadTable(fsys, path)
	if err != nil {
		return err
	}
	e.Replace(t)
	return nil
}

func (e *Engine) lookup(number string) (NumberRoute, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.byNumber[strings.TrimSpace(number)]
	return r, ok
}

// WorkspaceForNumber implements telephony.WorkspaceResolver.
func (e *Engine) WorkspaceForNumber(_ context.Context, number string) (string, error) {
	r, ok := e.lookup(number)
	if !ok {
		return "", fmt.Errorf("%w: %s", telephony.ErrUnknownNumber, number)
	}
	return r.WorkspaceID, nil
}

// NumbersFor returns the numbers routed to workspaceID.
func (e *Engine) NumbersFor(workspaceID string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []string
	for n, r := range e.byNumber {
		if r.WorkspaceID == workspaceID {
			out = append(out, n)
		}
	}
	return out
}

// RouteInboundCall implements telephony.InboundRouter.
func (e *Engine) RouteInboundCall(ctx context.Context, req telephony.InboundCallRequest) (telephony.InboundCallResult, error) {
	d, err := e.Route(ctx, req)
	if err != nil {
		return telephony.InboundCallResult{}, err
	}
	return d.Result(), nil
}

// Route decides what to do with req. It has no side effects.
func (e *Engine) Route(_ context.Context, req telephony.InboundCallRequest) (Decision, error) {
	if req.WorkspaceID == "" {
		return Decision{}, errors.New("routing: workspace_id required")
	}

	r, ok := e.lookup(req.To)
	if !ok {
		return Decision{WorkspaceID: req.WorkspaceID, Action: ActionReject, Reason: "unassigned_number"}, nil
	}
	if r.WorkspaceID != req.WorkspaceID {
		return Decision{WorkspaceID: req.WorkspaceID, Action: ActionReject, Reason: "workspace_mismatch"}, nil
	}

	if o := r.Override; o != nil && o.Until.After(e.now()) {
		return Decision{WorkspaceID: r.WorkspaceID, Action: ActionConnect, ConnectTo: o.Target, CallerID: r.CallerID}, nil
	}

	switch r.Action {
	case ActionReject, ActionHangup:
		return Decision{WorkspaceID: r.WorkspaceID, Action: r.Action, Reason: "configured"}, nil
	case ActionConnect:
		if dest, ok := e.pickDestination(r.Destinations); ok {
			return Decision{
				WorkspaceID: r.WorkspaceID,
				Action:      ActionConnect,
				ConnectTo:   dest,
				CallerID:    r.CallerID,
				Greeting:    r.Greeting,
				Reason:      "selected",
			}, nil
		}
		return Decision{WorkspaceID: r.WorkspaceID, Action: ActionReject, Reason: "no_eligible_destination"}, nil
	}
	return Decision{}, fmt.Errorf("routing: unknown action %q for %s", r.Action, r.Number)
}

func (e *Engine) pickDestination(dests []Destination) (string, bool) {
	var total int
	for _, d := range dests {
		if d.Weight > 0 {
			total += d.Weight
		}
	}
	if total <= 0 {
		return "", false
	}

	e.rngMu.Lock()
	n := e.rng.Intn(total)
	e.rngMu.Unlock()

	var acc int
	for _, d := range dests {
		if d.Weight <= 0 {
			continue
		}
		acc += d.Weight
		if n < acc {
			return d.Target, true
		}
	}
	return "", false
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
