package catapult

import (
	"context"
	"net/http"
)

// AvailableNumberService searches and orders numbers from inventory.
// Its paths are not scoped to the user.
type AvailableNumberService service

// NumberType selects the inventory to search.
type NumberType string

const (
	NumberTypeLocal    NumberType = "local"
	NumberTypeTollFree NumberType = "tollFree"
)

// AvailableNumber is a number in inventory.
type AvailableNumber struct {
	Number         string `json:"number"`
	NationalNumber string `json:"nationalNumber"`
	PatternMatch   string `json:"patternMatch,omitempty"`
	City           string `json:"city,omitempty"`
	LATA           string `json:"lata,omitempty"`
	RateCenter     string `json:"rateCenter,omitempty"`
	State          string `json:"state,omitempty"`
	Price          string `json:"price,omitempty"`
}

// OrderedNumber is a number allocated by an order. ID is derived from Location.
type OrderedNumber struct {
	Number         string `json:"number"`
	NationalNumber string `json:"nationalNumber"`
	Price          string `json:"price,omitempty"`
	Location       string `json:"location"`
	ID             string `json:"-"`
}

// LocalNumberQuery searches local inventory. At least one of City+State,
// State, Zip or AreaCode is required by the API.
type LocalNumberQuery struct {
	City               string
	State              string
	Zip                string
	AreaCode           string
	LocalNumber        string
	InLocalCallingArea *bool
	Quantity           int
	Pattern            string
}

// Params returns the query parameters.
func (q LocalNumberQuery) Params() Query {
	return Query{
		{"city", q.City},
		{"state", q.State},
		{"zip", q.Zip},
		{"areaCode", q.AreaCode},
		{"localNumber", q.LocalNumber},
		{"inLocalCallingArea", q.InLocalCallingArea},
		{"quantity", positive(q.Quantity)},
		{"pattern", q.Pattern},
	}
}

// TollFreeNumberQuery searches toll-free inventory.
type TollFreeNumberQuery struct {
	Quantity int
	Pattern  string
}

// Params returns the query parameters.
func (q TollFreeNumberQuery) Params() Query {
	return Query{
		{"quantity", positive(q.Quantity)},
		{"pattern", q.Pattern},
	}
}

// SearchLocal lists local numbers in inventory.
func (s *AvailableNumberService) SearchLocal(ctx context.Context, q LocalNumberQuery) ([]AvailableNumber, error) {
	return s.search(ctx, NumberTypeLocal, q.Params())
}

// SearchTollFree lists toll-free numbers in inventory.
func (s *AvailableNumberService) SearchTollFree(ctx context.Context, q TollFreeNumberQuery) ([]AvailableNumber, error) {
	return s.search(ctx, NumberTypeTollFree, q.Params())
}

// OrderLocal searches local inventory and allocates the matches.
func (s *AvailableNumberService) OrderLocal(ctx context.Context, q LocalNumberQuery) ([]OrderedNumber, error) {
	return s.order(ctx, NumberTypeLocal, q.Params())
}

// OrderTollFree searches toll-free inventory and allocates the matches.
func (s *AvailableNumberService) OrderTollFree(ctx context.Context, q TollFreeNumberQuery) ([]OrderedNumber, error) {
	return s.order(ctx, NumberTypeTollFree, q.Params())
}

func (s *AvailableNumberService) search(ctx context.Context, t NumberType, q Query) ([]AvailableNumber, error) {
	var out []AvailableNumber
	if err := s.client.SendJSON(ctx, http.MethodGet, "/availableNumbers/"+string(t), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AvailableNumberService) order(ctx context.Context, t NumberType, q Query) ([]OrderedNumber, error) {
	var out []OrderedNumber
	if err := s.client.SendJSON(ctx, http.MethodPost, "/availableNumbers/"+string(t), q, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].ID = idFromLocation(out[i].Location)
	}
	return out, nil
}
