package interaction

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/binarydesk/deposit-service/internal/repository/downstreams/xgate"
	"github.com/binarydesk/deposit-service/internal/restapi/common"
)

var _ xgate.XGate = (*XGateMock)(nil)

type XGateMock struct {
	mock.Mock
}

func (m *XGateMock) Authenticate(ctx context.Context) (xgate.Token, error) {
	args := m.Called(ctx)
	return args.Get(0).(xgate.Token), args.Error(1)
}

func (m *XGateMock) CreateCustomer(ctx context.Context, displayName string) (string, error) {
	args := m.Called(ctx, displayName)
	return args.String(0), args.Error(1)
}

func (m *XGateMock) ListCurrencies(ctx context.Context) ([]xgate.Currency, error) {
	args := m.Called(ctx)
	currencies, _ := args.Get(0).([]xgate.Currency)
	return currencies, args.Error(1)
}

func (m *XGateMock) CreateDeposit(ctx context.Context, amount decimal.Decimal) (xgate.DepositResponse, error) {
	args := m.Called(ctx, amount)
	return args.Get(0).(xgate.DepositResponse), args.Error(1)
}

func userContext(subject string, roles ...string) context.Context {
	claims := &common.AllClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
		CustomClaims: common.CustomClaims{
			Global: common.GlobalClaims{
				Roles: roles,
			},
		},
	}
	ctx := context.WithValue(context.Background(), common.CtxKeyToken{}, "valid")
	return context.WithValue(ctx, common.CtxKeyClaims{}, claims)
}

func adminContext() context.Context {
	return userContext("1", testAdminRole)
}

func apiTokenContext() context.Context {
	return context.WithValue(context.Background(), common.CtxKeyAPIKey{}, "api-token")
}

const testAdminRole = "admin"
