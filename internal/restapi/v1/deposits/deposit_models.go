package v1deposits

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/binarydesk/deposit-service/internal/entities"
)

// request and response types
type (
	// CreateDepositRequest asks for a new PIX deposit for the logged in user.
	CreateDepositRequest struct {
		// Amount in BRL, positive with at most 2 decimal places. Accepts a json number or string.
		Amount decimal.Decimal `json:"amount"`
	}

	GetDepositsRequest struct {
		// filter by user, admin or api token only
		UserID string
		Status entities.DepositStatus
	}

	GetDepositRequest struct {
		ID uint
	}

	// UpdateStatusRequest approves or rejects a pending deposit
	UpdateStatusRequest struct {
		ID      uint                   `json:"-"`
		Status  entities.DepositStatus `json:"status"`
		Comment string                 `json:"comment"`
	}
)

type Deposit struct {
	ID        uint                   `json:"id"`
	UserID    string                 `json:"user_id"`
	Amount    string                 `json:"amount"`
	Currency  string                 `json:"currency"`
	Status    entities.DepositStatus `json:"status"`
	Gateway   GatewayInfo            `json:"gateway"`
	Review    *Review                `json:"review,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// GatewayInfo is what the payment gateway returned for the deposit. QRCode is the PIX copy and paste payload.
type GatewayInfo struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Code       string `json:"code"`
	CustomerID string `json:"customer_id"`
	QRCode     string `json:"qr_code,omitempty"`
}

type Review struct {
	By      string     `json:"by"`
	Comment string     `json:"comment,omitempty"`
	At      *time.Time `json:"at,omitempty"`
}
