package downstreams

import (
	"context"
	"errors"
	"net/http"
	"time"

	aurestbreaker "github.com/StephanHCB/go-autumn-restclient-circuitbreaker/implementation/breaker"
	aurestclientapi "github.com/StephanHCB/go-autumn-restclient/api"
	auresthttpclient "github.com/StephanHCB/go-autumn-restclient/implementation/httpclient"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-http-utils/headers"

	"github.com/binarydesk/deposit-service/internal/logging"
)

var (
	ErrDownStreamUnavailable = errors.New("downstream unavailable - see log for details")
)

type ctxKeyBearerToken struct{}

// ContextWithBearerToken makes BearerTokenRequestManipulator send token on requests performed with the returned context.
func ContextWithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyBearerToken{}, token)
}

func requestIDFromContext(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}

func RequestIdRequestManipulator() aurestclientapi.RequestManipulatorCallback {
	return func(ctx context.Context, r *http.Request) {
		r.Header.Add(middleware.RequestIDHeader, requestIDFromContext(ctx))
	}
}

func BearerTokenRequestManipulator() aurestclientapi.RequestManipulatorCallback {
	return func(ctx context.Context, r *http.Request) {
		token, ok := ctx.Value(ctxKeyBearerToken{}).(string)
		if ok && token != "" {
			r.Header.Add(headers.Authorization, "Bearer "+token)
		}
		r.Header.Add(middleware.RequestIDHeader, requestIDFromContext(ctx))
	}
}

// The circuit breaker always puts a deadline on each request. This one is long enough that
// the http transport default governs when no timeout is configured.
const unboundedRequestTimeout = 24 * time.Hour

func breakerRequestTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return unboundedRequestTimeout
	}
	return timeout
}

// ClientWith stacks request logging and a circuit breaker on top of a plain http client.
// A zero timeout leaves the transport default in place.
func ClientWith(requestManipulator aurestclientapi.RequestManipulatorCallback, circuitBreakerName string, timeout time.Duration) (aurestclientapi.Client, error) {
	httpClient, err := auresthttpclient.New(timeout, nil, requestManipulator)
	if err != nil {
		return nil, err
	}

	requestLoggingClient := NewRequestLoggingWrapper(httpClient)

	circuitBreakerClient := aurestbreaker.New(requestLoggingClient,
		circuitBreakerName,
		10,
		2*time.Minute,
		30*time.Second,
		breakerRequestTimeout(timeout),
	)

	return circuitBreakerClient, nil
}

func ErrByStatus(err error, status int) error {
	if err != nil {
		return err
	}
	if status >= 300 {
		return ErrDownStreamUnavailable
	}
	return nil
}
