package routing

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catapult-platform/internal/telephony"
)

const routeFile = `
numbers:
  - number: "+19195550000"
    workspace_id: ws-1
    action: connect
    caller_id: "+19195550000"
    greeting: Connecting you now
    destinations:
      - target: "+19195551111"
        weight: 1
      - target: "sip:desk@pbx.example.com"
        weight: 3
  - number: "+19195550001"
    workspace_id: ws-1
    action: reject
  - number: "+18885550000"
    workspace_id: ws-2
    action: connect
    destinations:
      - target: "+18885551111"
        weight: 1
    override:
      target: "+18885559999"
      until: 2030-01-01T00:00:00Z
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/routes.yaml", []byte(routeFile), 0o644))

	e, err := LoadEngine(fs, "/etc/routes.yaml")
	require.NoError(t, err)
	e.rng = rand.New(rand.NewSource(1))
	e.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func inbound(ws, to string) telephony.InboundCallRequest {
	return telephony.InboundCallRequest{WorkspaceID: ws, ProviderCallID: "c-1", From: "+15550001111", To: to}
}

func TestEngine_WeightedSelection(t *testing.T) {
	e := newTestEngine(t)

	counts := map[string]int{}
	for i := 0; i < 4000; i++ {
		d, err := e.Route(context.Background(), inbound("ws-1", "+19195550000"))
		require.NoError(t, err)
		require.Equal(t, ActionConnect, d.Action)
		assert.Equal(t, "+19195550000", d.CallerID)
		assert.Equal(t, "Connecting you now", d.Greeting)
		counts[d.ConnectTo]++
	}
	assert.Len(t, counts, 2)
	ratio := float64(counts["sip:desk@pbx.example.com"]) / float64(counts["+19195551111"])
	assert.InDelta(t, 3.0, ratio, 0.6)
}

func TestEngine_ConfiguredReject(t *testing.T) {
	e := newTestEngine(t)
	res, err := e.RouteInboundCall(context.Background(), inbound("ws-1", "+19195550001"))
	require.NoError(t, err)
	assert.Equal(t, telephony.InboundCallActionReject, res.Action)
}

func TestEngine_OverrideIsSilentAndExpires(t *testing.T) {
	e := newTestEngine(t)

	d, err := e.Route(context.Background(), inbound("ws-2", "+18885550000"))
	require.NoError(t, err)
	assert.Equal(t, "+18885559999", d.ConnectTo)
	assert.Empty(t, d.Reason)

	e.Now = func() time.Time { return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC) }
	d, err = e.Route(context.Background(), inbound("ws-2", "+18885550000"))
	require.NoError(t, err)
	assert.Equal(t, "+18885551111", d.ConnectTo)
}

func TestEngine_WorkspaceIsolation(t *testing.T) {
	e := newTestEngine(t)

	d, err := e.Route(context.Background(), inbound("ws-2", "+19195550000"))
	require.NoError(t, err)
	assert.Equal(t, ActionReject, d.Action)
	assert.Equal(t, "workspace_mismatch", d.Reason)

	d, err = e.Route(context.Background(), inbound("ws-1", "+10000000000"))
	require.NoError(t, err)
	assert.Equal(t, "unassigned_number", d.Reason)

	_, err = e.Route(context.Background(), inbound("", "+19195550000"))
	assert.Error(t, err)
}

func TestEngine_WorkspaceForNumber(t *testing.T) {
	e := newTestEngine(t)

	ws, err := e.WorkspaceForNumber(context.Background(), " +18885550000 ")
	require.NoError(t, err)
	assert.Equal(t, "ws-2", ws)

	_, err = e.WorkspaceForNumber(context.Background(), "+10000000000")
	assert.ErrorIs(t, err, telephony.ErrUnknownNumber)

	assert.ElementsMatch(t, []string{"+19195550000", "+19195550001"}, e.NumbersFor("ws-1"))
}

func TestEngine_ReloadKeepsTableOnError(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "routes.yaml", []byte(routeFile), 0o644))
	e, err := LoadEngine(fs, "routes.yaml")
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "routes.yaml", []byte("numbers: [{number: nope}]"), 0o644))
	assert.Error(t, e.Reload(fs, "routes.yaml"))

	_, err = e.WorkspaceForNumber(context.Background(), "+19195550000")
	assert.NoError(t, err)
}

func TestPickDestination_SkipsNonPositiveWeights(t *testing.T) {
	e := NewEngine(nil, rand.New(rand.NewSource(7)))
	dest, ok := e.pickDestination([]Destination{{Target: "+1", Weight: 0}, {Target: "+2", Weight: 5}})
	require.True(t, ok)
	assert.Equal(t, "+2", dest)

	_, ok = e.pickDestination([]Destination{{Target: "+1", Weight: -1}})
	assert.False(t, ok)
}
