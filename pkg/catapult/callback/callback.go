// Package callback decodes the events Catapult posts to application
// callback URLs. Events arrive either as a JSON body or, for GET
// callbacks, as query parameters.
package callback

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
)

// maxBody bounds the size of a JSON callback body.
const maxBody = 1 << 20

// Voice event types.
const (
	EventIncomingCall = "incomingcall"
	EventAnswer       = "answer"
	EventHangup       = "hangup"
	EventGather       = "gather"
	EventDTMF         = "dtmf"
	EventRecording    = "recording"
	EventSpeak        = "speak"
	EventPlayback     = "playback"
	EventTimeout      = "timeout"
	EventTransfer     = "transferComplete"
	EventConference   = "conference"
)

// Messaging event types.
const (
	EventSMS = "sms"
	EventMMS = "mms"
)

var ErrMissingEventType = errors.New("callback: missing eventType")

// Event is a callback event. Only the fields relevant to EventType are set.
type Event struct {
	EventType     string    `mapstructure:"eventType"`
	Time          time.Time `mapstructure:"time"`
	Tag           string    `mapstructure:"tag"`
	ApplicationID string    `mapstructure:"applicationId"`

	CallID    string `mapstructure:"callId"`
	CallURI   string `mapstructure:"callUri"`
	CallState string `mapstructure:"callState"`
	From      string `mapstructure:"from"`
	To        string `mapstructure:"to"`
	Cause     string `mapstructure:"cause"`
	Status    string `mapstructure:"status"`
	Duration  int    `mapstructure:"duration"`

	Digits   string `mapstructure:"digits"`
	DTMF     string `mapstructure:"dtmfDigit"`
	GatherID string `mapstructure:"gatherId"`
	Reason   string `mapstructure:"reason"`

	RecordingID  string `mapstructure:"recordingId"`
	RecordingURI string `mapstructure:"recordingUri"`

	ConferenceID string `mapstructure:"conferenceId"`
	MemberID     string `mapstructure:"memberId"`

	MessageID     string   `mapstructure:"messageId"`
	MessageURI    string   `mapstructure:"messageUri"`
	Direction     string   `mapstructure:"direction"`
	State         string   `mapstructure:"state"`
	DeliveryState string   `mapstructure:"deliveryState"`
	Text          string   `mapstructure:"text"`
	Media         []string `mapstructure:"media"`

	// Extra holds fields not mapped above.
	Extra map[string]any `mapstructure:",remain"`
}

// IsMessaging reports whether e is an SMS/MMS event.
func (e Event) IsMessaging() bool {
	return e.EventType == EventSMS || e.EventType == EventMMS
}

// ResourceID is the id of the call or message the event is about.
func (e Event) ResourceID() string {
	if e.IsMessaging() {
		return e.MessageID
	}
	return e.CallID
}

// Key identifies an event delivery. Retried deliveries of the same event
// share a key.
func (e Event) Key() string {
	state := e.State
	if state == "" {
		state = e.CallState
	}
	parts := []string{e.EventType, e.ResourceID(), state}
	switch {
	case e.RecordingID != "":
		parts = append(parts, e.RecordingID)
	case e.GatherID != "":
		parts = append(parts, e.GatherID)
	case e.MemberID != "":
		parts = append(parts, e.MemberID)
	}
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.UTC().Format(time.RFC3339Nano))
	}
	return strings.Join(parts, "|")
}

// Parse reads an event from r. JSON bodies are used when the request has
// a JSON content type; otherwise query and form values are decoded.
func Parse(r *http.Request) (Event, error) {
	var raw map[string]any
	if isJSON(r.Header.Get("Content-Type")) {
		data, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			return Event{}, fmt.Errorf("callback: read body: %w", err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return Event{}, fmt.Errorf("callback: invalid json: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return Event{}, fmt.Errorf("callback: invalid form: %w", err)
		}
		raw = make(map[string]any, len(r.Form))
		for k, v := range r.Form {
			if len(v) == 1 {
				raw[k] = v[0]
			} else {
				raw[k] = v
			}
		}
	}
	return Decode(raw)
}

// Decode maps raw callback fields onto an Event. Scalars are converted
// leniently, and timestamps accept any layout dateparse understands.
func Decode(raw map[string]any) (Event, error) {
	var e Event
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       timeHook,
		WeaklyTypedInput: true,
		Result:           &e,
	})
	if err != nil {
		return Event{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Event{}, fmt.Errorf("callback: decode: %w", err)
	}
	if e.EventType == "" {
		return Event{}, ErrMissingEventType
	}
	return e, nil
}

var timeType = reflect.TypeOf(time.Time{})

func timeHook(from, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}
