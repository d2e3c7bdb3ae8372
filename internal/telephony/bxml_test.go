package telephony

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBXML(t *testing.T) {
	tests := []struct {
		name string
		res  InboundCallResult
		want []string
	}{
		{"reject", InboundCallResult{Action: InboundCallActionReject}, []string{`<Reject reason="busy">`}},
		{"hangup", InboundCallResult{Action: InboundCallActionHangup}, []string{"<Hangup>"}},
		{
			"connect number",
			InboundCallResult{Action: InboundCallActionConnect, ConnectTo: "+19195551212", CallerID: "+19195550000", Greeting: "Please hold"},
			[]string{`<SpeakSentence>Please hold</SpeakSentence>`, `<Transfer transferCallerId="+19195550000">`, `<PhoneNumber>+19195551212</PhoneNumber>`},
		},
		{
			"connect sip",
			InboundCallResult{Action: InboundCallActionConnect, ConnectTo: "sip:agent@pbx.example.com"},
			[]string{`<Transfer transferTo="sip:agent@pbx.example.com">`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RenderBXML(tt.res)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRenderBXML_Errors(t *testing.T) {
	_, err := RenderBXML(InboundCallResult{Action: InboundCallActionConnect})
	assert.Error(t, err)

	_, err = RenderBXML(InboundCallResult{Action: "voicemail"})
	assert.Error(t, err)
}
