package catapult

import (
	"context"
	"net/http"
	"time"
)

// AccountService reads the account balance and transactions.
type AccountService service

// Account is the user's account summary.
type Account struct {
	Balance     string `json:"balance"`
	AccountType string `json:"accountType"`
}

// AccountTransaction is one charge or payment on the account.
type AccountTransaction struct {
	ID          string    `json:"id"`
	Time        time.Time `json:"time"`
	Amount      string    `json:"amount"`
	Type        string    `json:"type"`
	Units       int       `json:"units"`
	ProductType string    `json:"productType"`
	Number      string    `json:"number"`
}

// TransactionQuery filters ListTransactions.
type TransactionQuery struct {
	MaxItems int
	ToDate   time.Time
	FromDate time.Time
	Type     string
	Page     int
	Size     int
}

// Params returns the query parameters.
func (q TransactionQuery) Params() Query {
	return Query{
		{"maxItems", positive(q.MaxItems)},
		{"toDate", q.ToDate},
		{"fromDate", q.FromDate},
		{"type", q.Type},
		{"page", positive(q.Page)},
		{"size", positive(q.Size)},
	}
}

// Get returns the account summary.
func (s *AccountService) Get(ctx context.Context) (*Account, error) {
	var a Account
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/account"), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListTransactions returns one page of account transactions.
func (s *AccountService) ListTransactions(ctx context.Context, q TransactionQuery) ([]AccountTransaction, error) {
	var out []AccountTransaction
	if err := s.client.SendJSON(ctx, http.MethodGet, s.client.userPath("/account/transactions"), q.Params(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
