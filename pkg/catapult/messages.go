package catapult

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// MessageService sends and lists SMS/MMS messages.
type MessageService service

// Message is an SMS or MMS.
type Message struct {
	ID                  string    `json:"id"`
	From                string    `json:"from"`
	To                  string    `json:"to"`
	Direction           string    `json:"direction"`
	Text                string    `json:"text"`
	Media               []string  `json:"media,omitempty"`
	State               string    `json:"state"`
	Time                time.Time `json:"time"`
	CallbackURL         string    `json:"callbackUrl,omitempty"`
	Tag                 string    `json:"tag,omitempty"`
	DeliveryState       string    `json:"deliveryState,omitempty"`
	DeliveryCode        int       `json:"deliveryCode,omitempty"`
	DeliveryDescription string    `json:"deliveryDescription,omitempty"`
}

// SendMessageRequest sends a message.
type SendMessageRequest struct {
	From               string   `json:"from"`
	To                 string   `json:"to"`
	Text               string   `json:"text,omitempty"`
	Media              []string `json:"media,omitempty"`
	CallbackURL        string   `json:"callbackUrl,omitempty"`
	CallbackHTTPMethod string   `json:"callbackHttpMethod,omitempty"`
	CallbackTimeout    int      `json:"callbackTimeout,omitempty"`
	FallbackURL        string   `json:"fallbackUrl,omitempty"`
	ReceiptRequested   string   `json:"receiptRequested,omitempty"`
	Tag                string   `json:"tag,omitempty"`
}

// MessageQuery filters List. Zero times are ignored.
type MessageQuery struct {
	From          string
	To            string
	FromDateTime  time.Time
	ToDateTime    time.Time
	Direction     string
	State         string
	DeliveryState string
	SortOrder     string
	Page          int
	Size          int
}

// Params returns the query parameters.
func (q MessageQuery) Params() Query {
	return Query{
		{"from", q.From},
		{"to", q.To},
		{"fromDateTime", q.FromDateTime},
		{"toDateTime", q.ToDateTime},
		{"direction", q.Direction},
		{"state", q.State},
		{"deliveryState", q.DeliveryState},
		{"sortOrder", q.SortOrder},
		{"page", positive(q.Page)},
		{"size", positive(q.Size)},
	}
}

// Send sends a message and returns its id.
func (s *MessageService) Send(ctx context.Context, req SendMessageRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.client.userPath("/messages"), req)
}

// Get returns a message.
func (s *MessageService) Get(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/messages/%s", url.PathEscape(id)), nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns one page of messages.
func (s *MessageService) List(ctx context.Context, q MessageQuery) ([]Message, error) {
	var out []Message
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/messages"), q.Params(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pages returns a pager over all messages matching q.
func (s *MessageService) Pages(q MessageQuery) *Pager[Message] {
	return NewPager[Message](s.client, s.client.userPath("/messages"), q.Params())
}
