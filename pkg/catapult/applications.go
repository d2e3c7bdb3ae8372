package catapult

import (
	"context"
	"net/http"
	"net/url"
)

// ApplicationService manages callback applications.
type ApplicationService service

// Application routes incoming calls and messages on its numbers to callback URLs.
type Application struct {
	ID                                string `json:"id"`
	Name                              string `json:"name"`
	IncomingCallURL                   string `json:"incomingCallUrl,omitempty"`
	IncomingCallURLCallbackTimeout    int    `json:"incomingCallUrlCallbackTimeout,omitempty"`
	IncomingCallFallbackURL           string `json:"incomingCallFallbackUrl,omitempty"`
	IncomingMessageURL                string `json:"incomingMessageUrl,omitempty"`
	IncomingMessageURLCallbackTimeout int    `json:"incomingMessageUrlCallbackTimeout,omitempty"`
	IncomingMessageFallbackURL        string `json:"incomingMessageFallbackUrl,omitempty"`
	CallbackHTTPMethod                string `json:"callbackHttpMethod,omitempty"`
	AutoAnswer                        bool   `json:"autoAnswer"`
}

// ApplicationRequest creates or updates an application.
type ApplicationRequest struct {
	Name                       string `json:"name,omitempty"`
	IncomingCallURL            string `json:"incomingCallUrl,omitempty"`
	IncomingCallFallbackURL    string `json:"incomingCallFallbackUrl,omitempty"`
	IncomingMessageURL         string `json:"incomingMessageUrl,omitempty"`
	IncomingMessageFallbackURL string `json:"incomingMessageFallbackUrl,omitempty"`
	CallbackHTTPMethod         string `json:"callbackHttpMethod,omitempty"`
	AutoAnswer                 *bool  `json:"autoAnswer,omitempty"`
}

func (s *ApplicationService) path(id string) string {
	return s.client.userPath("/applications/%s", url.PathEscape(id))
}

// Create creates an application and returns its id.
func (s *ApplicationService) Create(ctx context.Context, req ApplicationRequest) (string, error) {
	return s.client.PostAndExtractID(ctx, s.client.userPath("/applications"), req)
}

// Get returns an application.
func (s *ApplicationService) Get(ctx context.Context, id string) (*Application, error) {
	var a Application
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns one page of applications.
func (s *ApplicationService) List(ctx context.Context, q PageQuery) ([]Application, error) {
	var out []Application
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/applications"), q.Params(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes an application.
func (s *ApplicationService) Update(ctx context.Context, id string, req ApplicationRequest) error {
	return s.client.SendJSONNoResult(ctx, http.MethodPost, s.path(id), nil, req)
}

// Delete removes an application.
func (s *ApplicationService) Delete(ctx context.Context, id string) error {
	return s.client.SendJSONNoResult(ctx, http.MethodDelete, s.path(id), nil, nil)
}
