package entities

import (
	"database/sql"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DepositStatus string

const (
	DepositStatusPending  DepositStatus = "pending"
	DepositStatusApproved DepositStatus = "approved"
	DepositStatusRejected DepositStatus = "rejected"
)

func (s DepositStatus) IsValid() bool {
	switch s {
	case DepositStatusPending, DepositStatusApproved, DepositStatusRejected:
		return true
	}

	return false
}

// Deposit is a user's request to fund their trading account through the payment gateway.
type Deposit struct {
	gorm.Model
	UserID        string          `gorm:"index;type:varchar(80) CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;NOT NULL"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);NOT NULL"`
	Status        DepositStatus   `gorm:"index;type:enum('pending', 'approved', 'rejected');NOT NULL"`
	GatewayID     string          `gorm:"uniqueIndex:idx_uq_gateway_id;type:varchar(80) CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci;NOT NULL"`
	GatewayStatus string          `gorm:"type:varchar(40) CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci"`
	GatewayCode   string          `gorm:"type:varchar(80) CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci"`
	CustomerID    string          `gorm:"type:varchar(80) CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci"`
	QRCode        string          `gorm:"type:text CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci"`
	Review        Review          `gorm:"embedded;embeddedPrefix:reviewed_"`
}

// Review records the admin decision on a deposit.
type Review struct {
	By      string `gorm:"type:varchar(80) CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci"`
	Comment string `gorm:"type:text CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci"`
	At      sql.NullTime
}
