package catapult

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// RecordingService reads call recordings and their transcriptions.
type RecordingService service

// Recording is an audio recording of a call.
type Recording struct {
	ID        string     `json:"id"`
	Media     string     `json:"media"`
	Call      string     `json:"call"`
	State     string     `json:"state"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

// Transcription is the text of a recording.
type Transcription struct {
	ID                 string    `json:"id"`
	State              string    `json:"state"`
	Text               string    `json:"text,omitempty"`
	Time               time.Time `json:"time"`
	ChargeableDuration int       `json:"chargeableDuration"`
	TextSize           int       `json:"textSize"`
	TextURL            string    `json:"textUrl,omitempty"`
}

func (s *RecordingService) path(id, sub string) string {
	return s.client.userPath("/recordings/%s%s", url.PathEscape(id), sub)
}

// Get returns a recording.
func (s *RecordingService) Get(ctx context.Context, id string) (*Recording, error) {
	var r Recording
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, ""), nil, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// List returns one page of recordings.
func (s *RecordingService) List(ctx context.Context, q PageQuery) ([]Recording, error) {
	var out []Recording
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/recordings"), q.Params(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTranscription requests a transcription and returns its id.
func (s *RecordingService) CreateTranscription(ctx context.Context, id string) (string, error) {
	return s.client.PostAndExtractID(ctx, s.path(id, "/transcriptions"), struct{}{})
}

// ListTranscriptions returns the transcriptions of a recording.
func (s *RecordingService) ListTranscriptions(ctx context.Context, id string) ([]Transcription, error) {
	var out []Transcription
	if err := s.client.SendJSON(ctx, http.MethodGet, s.path(id, "/transcriptions"), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
