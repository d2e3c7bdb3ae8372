package telephony

import (
	"errors"
	"fmt"
	"strings"

	"catapult-platform/pkg/catapult/bxml"
)

// RenderBXML maps an InboundCallResult to the BXML answer for an
// incomingcall callback.
func RenderBXML(res InboundCallResult) (string, error) {
	doc := bxml.New()

	switch res.Action {
	case InboundCallActionReject:
		doc.Add(bxml.Reject{Reason: "busy"})
	case InboundCallActionHangup:
		doc.Add(bxml.Hangup{})
	case InboundCallActionConnect:
		target := strings.TrimSpace(res.ConnectTo)
		if target == "" {
			return "", errors.New("telephony: connect_to required for connect action")
		}
		t := bxml.Transfer{TransferCallerID: res.CallerID}
		if strings.HasPrefix(strings.ToLower(target), "sip:") {
			t.TransferTo = target
		} else {
			t.PhoneNumbers = []string{target}
		}
		if res.Greeting != "" {
			doc.Add(bxml.SpeakSentence{Sentence: res.Greeting})
		}
		doc.Add(t)
	default:
		return "", fmt.Errorf("telephony: unknown inbound action %q", res.Action)
	}

	b, err := doc.Marshal()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
