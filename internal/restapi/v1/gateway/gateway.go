package v1gateway

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/binarydesk/deposit-service/internal/interaction"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/restapi/common"
)

type Currency struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
}

type ListCurrenciesRequest struct{}

type gatewayHandler struct {
	interactor interaction.Interactor
}

// Create adds the admin routes that inspect the payment gateway.
func Create(router chi.Router, i interaction.Interactor) {
	handler := gatewayHandler{
		interactor: i,
	}

	router.Get("/gateway/currencies", common.CreateHandler[ListCurrenciesRequest, []Currency](
		handler.listCurrencies,
		func(r *http.Request) (*ListCurrenciesRequest, error) {
			return &ListCurrenciesRequest{}, nil
		},
		func(ctx context.Context, res *[]Currency, w http.ResponseWriter) error {
			common.EncodeWithStatus(w, http.StatusOK, common.NewResponse(res), logging.LoggerFromContext(ctx))
			return nil
		},
	))
}

func (h *gatewayHandler) listCurrencies(ctx context.Context, _ *ListCurrenciesRequest, logger logging.Logger) (*[]Currency, error) {
	currencies, err := h.interactor.ListGatewayCurrencies(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Currency, 0, len(currencies))
	for _, c := range currencies {
		result = append(result, Currency{
			ID:     c.ID,
			Name:   c.Name,
			Type:   c.Type,
			Symbol: c.Symbol,
		})
	}
	return &result, nil
}
