package downstreams

import (
	"context"
	"net/http"
	"net/url"
	"time"

	aurestclientapi "github.com/StephanHCB/go-autumn-restclient/api"

	"github.com/binarydesk/deposit-service/internal/logging"
)

// callLogger records each gateway call in the request scoped logger. Request and response
// bodies carry credentials and payer data, so only method, target, status and duration are logged.
type callLogger struct {
	wrapped aurestclientapi.Client
}

func NewRequestLoggingWrapper(wrapped aurestclientapi.Client) aurestclientapi.Client {
	return &callLogger{wrapped: wrapped}
}

func (c *callLogger) Perform(ctx context.Context, method string, requestUrl string, requestBody interface{}, response *aurestclientapi.ParsedResponse) error {
	started := time.Now()
	err := c.wrapped.Perform(ctx, method, requestUrl, requestBody, response)
	elapsed := time.Since(started).Milliseconds()

	status := 0
	if response != nil {
		status = response.Status
	}

	logger := logging.LoggerFromContext(ctx)
	target := redactedTarget(requestUrl)
	switch {
	case err != nil:
		logger.Warn("downstream %s %s failed after %d ms: %v", method, target, elapsed, err)
	case status >= http.StatusBadRequest:
		logger.Warn("downstream %s %s -> %d (%d ms)", method, target, status, elapsed)
	default:
		logger.Debug("downstream %s %s -> %d (%d ms)", method, target, status, elapsed)
	}
	return err
}

// redactedTarget keeps scheme, host and path. Query strings and userinfo are dropped.
func redactedTarget(requestUrl string) string {
	u, err := url.Parse(requestUrl)
	if err != nil {
		return "<unparseable url>"
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
}
