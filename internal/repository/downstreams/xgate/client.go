package xgate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	aurestclientapi "github.com/StephanHCB/go-autumn-restclient/api"
	"github.com/shopspring/decimal"

	"github.com/binarydesk/deposit-service/internal/config"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/repository/downstreams"
)

const (
	requiredCurrencyName = "BRL"
	requiredCurrencyType = "PIX"

	defaultTokenLifetime = time.Hour
)

var _ XGate = (*Impl)(nil)

type Impl struct {
	loginClient aurestclientapi.Client
	client      aurestclientapi.Client
	baseUrl     string
	email       string
	password    string

	tokenLifetime time.Duration
	now           func() time.Time
	names         *NameGenerator

	mu               sync.Mutex
	token            Token
	currencies       []Currency
	currenciesCached bool
}

type Option func(*Impl)

// WithClock replaces time.Now for token expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(i *Impl) {
		i.now = now
	}
}

// WithRandomSource makes synthesized customer names reproducible.
func WithRandomSource(src rand.Source) Option {
	return func(i *Impl) {
		i.names = NewNameGenerator(src)
	}
}

func New(conf config.GatewayConfig, opts ...Option) (*Impl, error) {
	if conf.BaseUrl == "" {
		return nil, errors.New("gateway.base_url not configured. This service cannot create deposits without the payment gateway")
	}

	timeout := time.Duration(conf.TimeoutSeconds) * time.Second

	loginClient, err := downstreams.ClientWith(
		downstreams.RequestIdRequestManipulator(),
		"xgate-login-breaker",
		timeout,
	)
	if err != nil {
		return nil, err
	}

	client, err := downstreams.ClientWith(
		downstreams.BearerTokenRequestManipulator(),
		"xgate-breaker",
		timeout,
	)
	if err != nil {
		return nil, err
	}

	tokenLifetime := time.Duration(conf.TokenLifetimeMinutes) * time.Minute
	if tokenLifetime <= 0 {
		tokenLifetime = defaultTokenLifetime
	}

	impl := &Impl{
		loginClient:   loginClient,
		client:        client,
		baseUrl:       conf.BaseUrl,
		email:         conf.Email,
		password:      conf.Password,
		tokenLifetime: tokenLifetime,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(impl)
	}
	if impl.names == nil {
		impl.names = NewNameGenerator(nil)
	}

	return impl, nil
}

func (i *Impl) Authenticate(ctx context.Context) (Token, error) {
	i.mu.Lock()
	cached := i.token
	i.mu.Unlock()

	if cached.ValidAt(i.now()) {
		return cached, nil
	}

	// concurrent callers may each log in here, the last one to finish wins the cache
	url := fmt.Sprintf("%s/auth/token", i.baseUrl)
	bodyDto := loginResponseDto{}
	response := aurestclientapi.ParsedResponse{
		Body: &bodyDto,
	}
	requestDto := loginRequestDto{
		Email:    i.email,
		Password: i.password,
	}
	err := i.loginClient.Perform(ctx, http.MethodPost, url, requestDto, &response)
	if err := downstreams.ErrByStatus(err, response.Status); err != nil {
		return Token{}, transportError(StepAuthenticate, err)
	}
	if bodyDto.Token == "" {
		return Token{}, decodeError(StepAuthenticate, "no token in login response")
	}

	token := Token{
		Value:     bodyDto.Token,
		ExpiresAt: i.now().Add(i.tokenLifetime),
	}

	i.mu.Lock()
	i.token = token
	i.mu.Unlock()

	return token, nil
}

func (i *Impl) authorizedContext(ctx context.Context) (context.Context, error) {
	token, err := i.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return downstreams.ContextWithBearerToken(ctx, token.Value), nil
}

func (i *Impl) CreateCustomer(ctx context.Context, displayName string) (string, error) {
	if displayName == "" {
		displayName = i.names.RandomName()
	}

	authCtx, err := i.authorizedContext(ctx)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/customer", i.baseUrl)
	bodyDto := customerResponseDto{}
	response := aurestclientapi.ParsedResponse{
		Body: &bodyDto,
	}
	err = i.client.Perform(authCtx, http.MethodPost, url, customerRequestDto{Name: displayName}, &response)
	if err := downstreams.ErrByStatus(err, response.Status); err != nil {
		return "", transportError(StepCreateCustomer, err)
	}
	if bodyDto.Customer.ID == "" {
		return "", decodeError(StepCreateCustomer, "no customer._id in response")
	}

	return bodyDto.Customer.ID, nil
}

func (i *Impl) ListCurrencies(ctx context.Context) ([]Currency, error) {
	i.mu.Lock()
	if i.currenciesCached {
		result := copyCurrencies(i.currencies)
		i.mu.Unlock()
		return result, nil
	}
	i.mu.Unlock()

	authCtx, err := i.authorizedContext(ctx)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/deposit/company/currencies", i.baseUrl)
	bodyDto := make([]Currency, 0)
	response := aurestclientapi.ParsedResponse{
		Body: &bodyDto,
	}
	err = i.client.Perform(authCtx, http.MethodGet, url, nil, &response)
	if err := downstreams.ErrByStatus(err, response.Status); err != nil {
		return nil, transportError(StepListCurrencies, err)
	}
	for idx, c := range bodyDto {
		if c.ID == "" || c.Name == "" {
			return nil, decodeError(StepListCurrencies, fmt.Sprintf("currency at index %d lacks _id or name", idx))
		}
	}

	i.mu.Lock()
	i.currencies = copyCurrencies(bodyDto)
	i.currenciesCached = true
	i.mu.Unlock()

	return copyCurrencies(bodyDto), nil
}

func copyCurrencies(in []Currency) []Currency {
	out := make([]Currency, len(in))
	copy(out, in)
	return out
}

func findCurrency(currencies []Currency, name string, currencyType string) (Currency, bool) {
	for _, c := range currencies {
		if c.Name == name && c.Type == currencyType {
			return c, true
		}
	}
	return Currency{}, false
}

func (i *Impl) CreateDeposit(ctx context.Context, amount decimal.Decimal) (DepositResponse, error) {
	logger := logging.LoggerFromContext(ctx)

	if _, err := i.Authenticate(ctx); err != nil {
		return DepositResponse{}, err
	}

	customerID, err := i.CreateCustomer(ctx, "")
	if err != nil {
		return DepositResponse{}, err
	}
	logger.Debug("xgate customer %s created for deposit", customerID)

	currencies, err := i.ListCurrencies(ctx)
	if err != nil {
		return DepositResponse{}, err
	}
	currency, ok := findCurrency(currencies, requiredCurrencyName, requiredCurrencyType)
	if !ok {
		logger.Warn("xgate offers no %s/%s currency, customer %s left without deposit", requiredCurrencyName, requiredCurrencyType, customerID)
		return DepositResponse{}, &Error{Step: StepResolveCurrency, Kind: KindCurrencyUnavailable, Err: ErrCurrencyUnavailable}
	}

	authCtx, err := i.authorizedContext(ctx)
	if err != nil {
		return DepositResponse{}, err
	}

	url := fmt.Sprintf("%s/deposit", i.baseUrl)
	bodyDto := DepositResponse{}
	response := aurestclientapi.ParsedResponse{
		Body: &bodyDto,
	}
	requestDto := depositRequestDto{
		Amount:     json.Number(amount.String()),
		CustomerID: customerID,
		Currency:   currency,
	}
	err = i.client.Perform(authCtx, http.MethodPost, url, requestDto, &response)
	if err := downstreams.ErrByStatus(err, response.Status); err != nil {
		return DepositResponse{}, transportError(StepCreateDeposit, err)
	}
	if bodyDto.Data.ID == "" {
		return DepositResponse{}, decodeError(StepCreateDeposit, "no data.id in deposit response")
	}

	logger.Info("xgate deposit %s created with status %s", bodyDto.Data.ID, bodyDto.Data.Status)
	return bodyDto, nil
}
