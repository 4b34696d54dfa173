package xgate

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-http-utils/headers"
	"github.com/stretchr/testify/require"

	"github.com/binarydesk/deposit-service/internal/config"
)

var (
	currencyBRLPix  = Currency{ID: "cur-1", Name: "BRL", Type: "PIX", Symbol: "R$"}
	currencyUSDTTrc = Currency{ID: "cur-2", Name: "USDT", Type: "TRC20", Symbol: "USDT"}
	currencyBRLTed  = Currency{ID: "cur-3", Name: "BRL", Type: "TED", Symbol: "R$"}
)

// fakeGateway mimics the XGate REST API and counts the calls it receives.
type fakeGateway struct {
	logins          atomic.Int32
	customers       atomic.Int32
	currencyFetches atomic.Int32
	deposits        atomic.Int32

	failLogin      atomic.Bool
	emptyToken     atomic.Bool
	failCustomer   atomic.Bool
	failCurrencies atomic.Bool
	failDeposit    atomic.Bool

	loginDelay time.Duration

	mu            sync.Mutex
	currencies    []Currency
	customerNames []string
	lastDeposit   depositRequestDto
}

func newFakeGateway(currencies ...Currency) *fakeGateway {
	return &fakeGateway{currencies: currencies}
}

func (g *fakeGateway) start(t *testing.T) string {
	router := chi.NewRouter()
	router.Post("/auth/token", g.login)
	router.Post("/customer", g.authorized(g.createCustomer))
	router.Get("/deposit/company/currencies", g.authorized(g.listCurrencies))
	router.Post("/deposit", g.authorized(g.createDeposit))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL
}

func (g *fakeGateway) client(t *testing.T, opts ...Option) *Impl {
	return g.clientWithTimeout(t, 0, opts...)
}

func (g *fakeGateway) clientWithTimeout(t *testing.T, timeoutSeconds int, opts ...Option) *Impl {
	cl, err := New(config.GatewayConfig{
		BaseUrl:              g.start(t),
		Email:                "deposits@example.com",
		Password:             "gateway-secret",
		TokenLifetimeMinutes: 60,
		TimeoutSeconds:       timeoutSeconds,
	}, opts...)
	require.NoError(t, err)
	return cl
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set(headers.ContentType, "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func failure(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
}

func (g *fakeGateway) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get(headers.Authorization), "Bearer token-") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (g *fakeGateway) login(w http.ResponseWriter, r *http.Request) {
	n := g.logins.Add(1)
	time.Sleep(g.loginDelay)

	var req loginRequestDto
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad credentials"})
		return
	}
	if g.failLogin.Load() {
		failure(w)
		return
	}
	if g.emptyToken.Load() {
		writeJSON(w, http.StatusOK, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, loginResponseDto{Token: fmt.Sprintf("token-%d", n)})
}

func (g *fakeGateway) createCustomer(w http.ResponseWriter, r *http.Request) {
	n := g.customers.Add(1)
	if g.failCustomer.Load() {
		failure(w)
		return
	}

	var req customerRequestDto
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}

	g.mu.Lock()
	g.customerNames = append(g.customerNames, req.Name)
	g.mu.Unlock()

	writeJSON(w, http.StatusCreated, customerResponseDto{
		Message:  "Customer created",
		Customer: customerDto{ID: fmt.Sprintf("customer-%d", n), Name: req.Name},
	})
}

func (g *fakeGateway) listCurrencies(w http.ResponseWriter, r *http.Request) {
	g.currencyFetches.Add(1)
	if g.failCurrencies.Load() {
		failure(w)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	writeJSON(w, http.StatusOK, g.currencies)
}

func (g *fakeGateway) createDeposit(w http.ResponseWriter, r *http.Request) {
	n := g.deposits.Add(1)
	if g.failDeposit.Load() {
		failure(w)
		return
	}

	var req depositRequestDto
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}

	g.mu.Lock()
	g.lastDeposit = req
	g.mu.Unlock()

	writeJSON(w, http.StatusCreated, DepositResponse{
		Message: "Pix Gerado com Sucesso",
		Data: DepositData{
			Status:     "WAITING_PAYMENT",
			Code:       fmt.Sprintf("code-%d", n),
			ID:         fmt.Sprintf("deposit-%d", n),
			CustomerID: req.CustomerID,
			QRCode:     "00020126580014br.gov.bcb.pix",
		},
	})
}

func (g *fakeGateway) lastCustomerName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.customerNames) == 0 {
		return ""
	}
	return g.customerNames[len(g.customerNames)-1]
}
