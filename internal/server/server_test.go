package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/binarydesk/deposit-service/internal/config"
	"github.com/binarydesk/deposit-service/internal/interaction"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/repository/database/inmemory"
	"github.com/binarydesk/deposit-service/internal/repository/downstreams/xgate"
)

const testApiToken = "test-api-token-long-enough"

type unusedGateway struct {
	xgate.XGate
}

func (unusedGateway) CreateDeposit(ctx context.Context, amount decimal.Decimal) (xgate.DepositResponse, error) {
	return xgate.DepositResponse{}, &xgate.Error{Step: xgate.StepAuthenticate, Kind: xgate.KindTransport}
}

func (unusedGateway) ListCurrencies(ctx context.Context) ([]xgate.Currency, error) {
	return []xgate.Currency{{ID: "c1", Name: "BRL", Type: "PIX"}}, nil
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	i, err := interaction.NewServiceInteractor(inmemory.NewInMemoryProvider(), unusedGateway{}, "admin", logging.NewNoopLogger())
	require.NoError(t, err)

	return CreateRouter(i, &config.SecurityConfig{
		Fixed: config.FixedTokenConfig{Api: testApiToken},
		Cors:  config.CorsConfig{DisableCors: true},
	})
}

func TestRoutes(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		apiToken       string
		expectedStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/", expectedStatus: http.StatusOK},
		{name: "health info", method: http.MethodGet, path: "/info/health", expectedStatus: http.StatusOK},
		{name: "deposits need authentication", method: http.MethodGet, path: "/api/rest/v1/deposits", expectedStatus: http.StatusUnauthorized},
		{name: "wrong api token", method: http.MethodGet, path: "/api/rest/v1/deposits", apiToken: "wrong", expectedStatus: http.StatusUnauthorized},
		{name: "api token lists deposits", method: http.MethodGet, path: "/api/rest/v1/deposits", apiToken: testApiToken, expectedStatus: http.StatusOK},
		{name: "missing deposit", method: http.MethodGet, path: "/api/rest/v1/deposits/3", apiToken: testApiToken, expectedStatus: http.StatusNotFound},
		{name: "api token lists gateway currencies", method: http.MethodGet, path: "/api/rest/v1/gateway/currencies", apiToken: testApiToken, expectedStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, path: "/api/rest/v1/withdrawals", apiToken: testApiToken, expectedStatus: http.StatusNotFound},
	}

	router := setupRouter(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.apiToken != "" {
				r.Header.Set("X-Api-Key", tt.apiToken)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			require.Equal(t, tt.expectedStatus, w.Code)
			require.Len(t, w.Header().Get("X-Request-Id"), 8)
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(context.Background(), &config.ServerConfig{
		BaseAddress:  "127.0.0.1",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 40,
		IdleTimeout:  120,
	}, http.NotFoundHandler())

	require.Equal(t, "127.0.0.1:8080", srv.Addr)
	require.Equal(t, float64(40), srv.WriteTimeout.Seconds())
}
