package xgate

import (
	"errors"
	"fmt"
)

// Step names the gateway call that failed.
type Step string

const (
	StepAuthenticate    Step = "authenticate"
	StepCreateCustomer  Step = "create_customer"
	StepListCurrencies  Step = "list_currencies"
	StepResolveCurrency Step = "resolve_currency"
	StepCreateDeposit   Step = "create_deposit"
)

type ErrorKind string

const (
	// KindTransport covers network failures and any non-success status.
	KindTransport ErrorKind = "transport"
	// KindDecode means the gateway answered with success but the body did not have the expected shape.
	KindDecode ErrorKind = "decode"
	// KindCurrencyUnavailable means the currency list lacks BRL/PIX.
	KindCurrencyUnavailable ErrorKind = "currency_unavailable"
)

var (
	ErrCurrencyUnavailable = errors.New("required currency not available")
	ErrDecode              = errors.New("unexpected response body from gateway")
)

type Error struct {
	Step Step
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("xgate %s failed (%s): %v", e.Step, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func transportError(step Step, err error) error {
	return &Error{Step: step, Kind: KindTransport, Err: err}
}

func decodeError(step Step, details string) error {
	return &Error{Step: step, Kind: KindDecode, Err: fmt.Errorf("%w: %s", ErrDecode, details)}
}

// AsError extracts the gateway error from err's chain.
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
