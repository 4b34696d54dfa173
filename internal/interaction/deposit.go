package interaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/binarydesk/deposit-service/internal/apierrors"
	"github.com/binarydesk/deposit-service/internal/entities"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/repository/database"
	"github.com/binarydesk/deposit-service/internal/repository/downstreams/xgate"
)

func (s *serviceInteractor) CreateDeposit(ctx context.Context, amount decimal.Decimal) (*entities.Deposit, error) {
	logger := logging.LoggerFromContext(ctx)

	mgr := s.identity(ctx)
	if !mgr.IsRegisteredUser() {
		return nil, apierrors.NewForbidden("deposits can only be requested by a logged in user")
	}

	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	response, err := s.gateway.CreateDeposit(ctx, amount)
	if err != nil {
		logger.Error("gateway deposit of %s for user %s failed. [error]: %v", amount.String(), mgr.Subject(), err)
		return nil, gatewayAPIError(err)
	}

	deposit := &entities.Deposit{
		UserID:        mgr.Subject(),
		Amount:        amount,
		Status:        entities.DepositStatusPending,
		GatewayID:     response.Data.ID,
		GatewayStatus: response.Data.Status,
		GatewayCode:   response.Data.Code,
		CustomerID:    response.Data.CustomerID,
		QRCode:        response.Data.QRCode,
	}

	if err := s.store.CreateDeposit(ctx, deposit); err != nil {
		logger.Error("gateway deposit %s for user %s could not be stored. [error]: %v", response.Data.ID, mgr.Subject(), err)
		return nil, apierrors.NewInternalServerError("deposit was created at the gateway but could not be stored")
	}

	logger.Info("deposit %d (gateway id %s) of %s created for user %s", deposit.ID, deposit.GatewayID, amount.String(), deposit.UserID)
	return deposit, nil
}

const (
	// deposits are stored as decimal(15,2)
	maxAmountIntegerDigits = 13
	maxAmountDecimalPlaces = 2
	// below this exponent no amount can have two decimal places without absurd trailing zeros
	minAmountExponent = -18
	// a valid amount has at most 13+18 coefficient digits
	maxCoefficientBits = 128
)

// validateAmount checks the digit counts before anything rescales the value, because
// rescaling an amount like 1e100000000 expands it to its full length.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apierrors.NewBadRequest("amount must be positive")
	}
	if amount.Exponent() < minAmountExponent {
		return apierrors.NewBadRequest("amount may have at most 2 decimal places")
	}
	coefficient := amount.Coefficient()
	if coefficient.BitLen() > maxCoefficientBits ||
		len(coefficient.Text(10))+int(amount.Exponent()) > maxAmountIntegerDigits {
		return apierrors.NewBadRequest(fmt.Sprintf("amount may have at most %d digits before the decimal point", maxAmountIntegerDigits))
	}
	if !amount.Equal(amount.Truncate(maxAmountDecimalPlaces)) {
		return apierrors.NewBadRequest("amount may have at most 2 decimal places")
	}
	return nil
}

// gatewayAPIError tells an unavailable currency apart from a failing gateway.
func gatewayAPIError(err error) error {
	gwErr, ok := xgate.AsError(err)
	if !ok {
		return apierrors.NewBadGateway("gateway.unavailable", "")
	}

	switch gwErr.Kind {
	case xgate.KindCurrencyUnavailable:
		return apierrors.NewBadGateway("gateway.currency.unavailable", "the payment gateway does not offer BRL via PIX")
	case xgate.KindDecode:
		return apierrors.NewBadGateway("gateway.response.invalid", string(gwErr.Step))
	default:
		return apierrors.NewBadGateway("gateway.unavailable", string(gwErr.Step))
	}
}

func (s *serviceInteractor) GetDeposits(ctx context.Context, query entities.DepositQuery) ([]entities.Deposit, error) {
	if query.Status != "" && !query.Status.IsValid() {
		return nil, apierrors.NewBadRequest(fmt.Sprintf("invalid status %s", query.Status))
	}

	mgr := s.identity(ctx)
	if !mgr.HasElevatedAccess() {
		if !mgr.IsRegisteredUser() {
			return nil, apierrors.NewForbidden("unable to determine the request permissions")
		}
		if query.UserID != "" && query.UserID != mgr.Subject() {
			return nil, apierrors.NewForbidden("deposits of other users may not be listed")
		}
		query.UserID = mgr.Subject()
	}

	return s.store.GetDepositsByFilter(ctx, query)
}

func (s *serviceInteractor) GetDeposit(ctx context.Context, id uint) (*entities.Deposit, error) {
	mgr := s.identity(ctx)
	if !mgr.HasElevatedAccess() && !mgr.IsRegisteredUser() {
		return nil, apierrors.NewForbidden("unable to determine the request permissions")
	}

	deposit, err := s.loadDeposit(ctx, id)
	if err != nil {
		return nil, err
	}

	if !mgr.HasElevatedAccess() && deposit.UserID != mgr.Subject() {
		return nil, apierrors.NewForbidden(fmt.Sprintf("deposit %d belongs to another user", id))
	}

	return deposit, nil
}

func (s *serviceInteractor) ReviewDeposit(ctx context.Context, id uint, status entities.DepositStatus, comment string) (*entities.Deposit, error) {
	mgr := s.identity(ctx)
	if !mgr.HasElevatedAccess() {
		return nil, apierrors.NewForbidden("only admins may review deposits")
	}

	if status != entities.DepositStatusApproved && status != entities.DepositStatusRejected {
		return nil, apierrors.NewBadRequest(fmt.Sprintf("deposits can only be approved or rejected, not set to %s", status))
	}

	review := entities.Review{
		By:      mgr.Reviewer(),
		Comment: comment,
	}
	err := s.store.UpdateDepositStatus(ctx, id, entities.DepositStatusPending, status, review)
	switch {
	case errors.Is(err, database.ErrDepositNotFound):
		return nil, apierrors.NewNotFound(fmt.Sprintf("deposit %d could not be found", id))
	case errors.Is(err, database.ErrStatusConflict):
		return nil, apierrors.NewConflict(fmt.Sprintf("deposit %d is no longer pending", id))
	case err != nil:
		return nil, err
	}

	logging.LoggerFromContext(ctx).Info("deposit %d %s by %s", id, status, review.By)

	return s.loadDeposit(ctx, id)
}

func (s *serviceInteractor) ListGatewayCurrencies(ctx context.Context) ([]xgate.Currency, error) {
	if !s.identity(ctx).HasElevatedAccess() {
		return nil, apierrors.NewForbidden("only admins may inspect the gateway")
	}

	currencies, err := s.gateway.ListCurrencies(ctx)
	if err != nil {
		return nil, gatewayAPIError(err)
	}
	return currencies, nil
}

func (s *serviceInteractor) loadDeposit(ctx context.Context, id uint) (*entities.Deposit, error) {
	deposit, err := s.store.GetDepositByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrDepositNotFound) {
			return nil, apierrors.NewNotFound(fmt.Sprintf("deposit %d could not be found", id))
		}
		return nil, err
	}
	return deposit, nil
}
