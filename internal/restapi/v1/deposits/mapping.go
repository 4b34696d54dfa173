package v1deposits

import (
	"github.com/binarydesk/deposit-service/internal/entities"
)

const depositCurrency = "BRL"

func depositFrom(e *entities.Deposit) Deposit {
	dto := Deposit{
		ID:       e.ID,
		UserID:   e.UserID,
		Amount:   e.Amount.StringFixed(2),
		Currency: depositCurrency,
		Status:   e.Status,
		Gateway: GatewayInfo{
			ID:         e.GatewayID,
			Status:     e.GatewayStatus,
			Code:       e.GatewayCode,
			CustomerID: e.CustomerID,
			QRCode:     e.QRCode,
		},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}

	if e.Review.By != "" {
		dto.Review = &Review{
			By:      e.Review.By,
			Comment: e.Review.Comment,
		}
		if e.Review.At.Valid {
			at := e.Review.At.Time
			dto.Review.At = &at
		}
	}

	return dto
}

func depositsFrom(list []entities.Deposit) []Deposit {
	result := make([]Deposit, 0, len(list))
	for i := range list {
		result = append(result, depositFrom(&list[i]))
	}
	return result
}
