package interaction

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/binarydesk/deposit-service/internal/entities"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/repository/database"
	"github.com/binarydesk/deposit-service/internal/repository/downstreams/xgate"
)

var _ Interactor = (*serviceInteractor)(nil)

type Interactor interface {
	// CreateDeposit asks the payment gateway for a PIX deposit and records it as pending for the caller.
	CreateDeposit(ctx context.Context, amount decimal.Decimal) (*entities.Deposit, error)
	GetDeposits(ctx context.Context, query entities.DepositQuery) ([]entities.Deposit, error)
	GetDeposit(ctx context.Context, id uint) (*entities.Deposit, error)
	// ReviewDeposit approves or rejects a pending deposit. Admin or api token only.
	ReviewDeposit(ctx context.Context, id uint, status entities.DepositStatus, comment string) (*entities.Deposit, error)
	ListGatewayCurrencies(ctx context.Context) ([]xgate.Currency, error)
}

type serviceInteractor struct {
	store     database.Repository
	gateway   xgate.XGate
	adminRole string
}

func NewServiceInteractor(r database.Repository,
	gateway xgate.XGate,
	adminRole string,
	logger logging.Logger,
) (Interactor, error) {

	if r == nil {
		return nil, errors.New("repository must not be nil")
	}

	if gateway == nil {
		return nil, errors.New("no payment gateway client provided")
	}

	if adminRole == "" && logger != nil {
		logger.Warn("no admin role configured, deposits can only be reviewed with the api token")
	}

	return &serviceInteractor{
		store:     r,
		gateway:   gateway,
		adminRole: adminRole,
	}, nil
}

func (s *serviceInteractor) identity(ctx context.Context) *IdentityManager {
	return NewIdentityManager(ctx, s.adminRole)
}
