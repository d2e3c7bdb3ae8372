package catapult

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// PhoneNumberService manages the numbers allocated to the account.
type PhoneNumberService service

// PhoneNumber is a number owned by the account.
type PhoneNumber struct {
	ID             string    `json:"id"`
	Application    string    `json:"application,omitempty"`
	Number         string    `json:"number"`
	NationalNumber string    `json:"nationalNumber"`
	Name           string    `json:"name,omitempty"`
	CreatedTime    time.Time `json:"createdTime"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Price          string    `json:"price,omitempty"`
	NumberState    string    `json:"numberState,omitempty"`
	FallbackNumber string    `json:"fallbackNumber,omitempty"`
}

// PhoneNumberRequest allocates or updates a number. Number is only used on create.
type PhoneNumberRequest struct {
	Number         string `json:"number,omitempty"`
	Name           string `json:"name,omitempty"`
	ApplicationID  string `json:"applicationId,omitempty"`
	FallbackNumber string `json:"fallbackNumber,omitempty"`
}

// PhoneNumberQuery filters List.
type PhoneNumberQuery struct {
	ApplicationID string
	State         string
	Name          string
	City          string
	NumberState   string
	Page          int
	Size          int
}

// Params returns the query parameters.
func (q PhoneNumberQuery) Params() Query {
	return Query{
		{"applicationId", q.ApplicationID},
		{"state", q.State},
		{"name", q.Name},
		{"city", q.City},
		{"numberState", q.NumberState},
		{"page", positive(q.Page)},
		{"size", positive(q.Size)},
	}
}

// path accepts either a number id or an E.164 number.
func (s *PhoneNumberService) path(idOrNumber string) string {
	return s.client.userPath("/phoneNumbers/%s", url.PathEscape(idOrNumber))
}

// Create allocates a number and returns its id.
func (s *PhoneNumberService) Create(ctx context.Context, req PhoneNumberRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.client.userPath("/phoneNumbers"), req)
}

// Get returns a number by id or by E.164 number.
func (s *PhoneNumberService) Get(ctx context.Context, idOrNumber string) (*PhoneNumber, error) {
	var n PhoneNumber
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(idOrNumber), nil, nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// List returns one page of numbers.
func (s *PhoneNumberService) List(ctx context.Context, q PhoneNumberQuery) ([]PhoneNumber, error) {
	var out []PhoneNumber
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/phoneNumbers"), q.Params(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes a number's name, application or fallback.
func (s *PhoneNumberService) Update(ctx context.Context, idOrNumber string, req PhoneNumberRequest) error {
	req.Number = ""
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(idOrNumber), nil, req)
}

// Delete releases a number.
func (s *PhoneNumberService) Delete(ctx context.Context, idOrNumber string) error {
	return s.client.SendJSONNoResult(ctx, http.MethodDelete, s.path(idOrNumber), nil, nil)
}
