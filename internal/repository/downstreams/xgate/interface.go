package xgate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// XGate mediates all communication with the XGate payment gateway.
type XGate interface {
	// Authenticate returns the cached bearer token while it is valid, otherwise logs in once.
	Authenticate(ctx context.Context) (Token, error)

	// CreateCustomer registers a new payer with the gateway and returns its id.
	//
	// An empty displayName is replaced by a random "First Last" name. Every call creates
	// a new customer on the gateway side.
	CreateCustomer(ctx context.Context, displayName string) (string, error)

	// ListCurrencies returns the gateway's currencies. The first successful fetch is cached
	// for the lifetime of the client.
	ListCurrencies(ctx context.Context) ([]Currency, error)

	// CreateDeposit creates a PIX deposit in BRL for a freshly created customer.
	//
	// amount must be positive; this is not checked here. A customer created before a
	// failing deposit step stays on the gateway side.
	CreateDeposit(ctx context.Context, amount decimal.Decimal) (DepositResponse, error)
}

type Token struct {
	Value     string
	ExpiresAt time.Time
}

// ValidAt reports whether the token may still be used at the given instant.
func (t Token) ValidAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

type Currency struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

type DepositResponse struct {
	Message string      `json:"message"`
	Data    DepositData `json:"data"`
}

type DepositData struct {
	Status     string `json:"status"`
	Code       string `json:"code"`
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	QRCode     string `json:"qrcode,omitempty"`
}

type loginRequestDto struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponseDto struct {
	Token string `json:"token"`
}

type customerRequestDto struct {
	Name string `json:"name"`
}

type customerResponseDto struct {
	Message  string      `json:"message"`
	Customer customerDto `json:"customer"`
}

type customerDto struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type depositRequestDto struct {
	Amount     json.Number `json:"amount"`
	CustomerID string      `json:"customerId"`
	Currency   Currency    `json:"currency"`
}
