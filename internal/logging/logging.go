package logging

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const ApplicationName = "deposit-service"

type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})

	// expected to terminate the process
	Fatal(format string, v ...interface{})
}

type loggingWrapper struct {
	logger *zerolog.Logger
}

func (l *loggingWrapper) Debug(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}

func (l *loggingWrapper) Info(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

func (l *loggingWrapper) Warn(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

func (l *loggingWrapper) Error(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

// expected to terminate the process
func (l *loggingWrapper) Fatal(format string, v ...interface{}) {
	l.logger.Fatal().Msgf(format, v...)
}

// context key with a separate type, so no other package has a chance of accessing it
type key int

const (
	loggerKey key = iota
	RequestIdKey
)

const unknownRequestID = "ffffffff"

// SetSeverity applies one of DEBUG, INFO, WARN, ERROR globally. Unknown values fall back to INFO.
func SetSeverity(severity string) {
	switch strings.ToUpper(severity) {
	case "DEBUG":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "WARN":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "ERROR":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// CreateContextWithLoggerForRequestId stores the request id and a logger tagged with it.
func CreateContextWithLoggerForRequestId(ctx context.Context, requestId string) context.Context {
	ctx = context.WithValue(ctx, RequestIdKey, requestId)
	return context.WithValue(ctx, loggerKey, newLoggerWithRequestID(requestId))
}

// ContextWithLogger makes LoggerFromContext return logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return "00000000"
	}
	if reqID, ok := ctx.Value(RequestIdKey).(string); ok {
		return reqID
	}
	return unknownRequestID
}

// WithRequestID returns the context logger, or a fresh one tagged with reqID if the
// context carries none.
func WithRequestID(ctx context.Context, reqID string) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return newLoggerWithRequestID(reqID)
}

// whenever processing a specific request, use this and give it the context.
func LoggerFromContext(ctx context.Context) Logger {
	if ctx == nil {
		return NewLogger()
	}
	logger, ok := ctx.Value(loggerKey).(Logger)
	if !ok {
		return NewLogger()
	}

	return logger
}

func NewLogger() Logger {
	logger := zerolog.New(os.Stdout).
		With().
		Str("App", ApplicationName).
		Timestamp().
		Logger()

	return &loggingWrapper{
		logger: &logger,
	}
}

func newLoggerWithRequestID(reqID string) Logger {
	logger := zerolog.New(os.Stdout).
		With().
		Str("App", ApplicationName).
		Str("RequestId", reqID).
		Timestamp().
		Logger()

	return &loggingWrapper{
		logger: &logger,
	}
}

func NewNoopLogger() Logger {
	return &noopLogger{}
}

type noopLogger struct {
}

func (l *noopLogger) Debug(format string, v ...interface{}) {
}

func (l *noopLogger) Info(format string, v ...interface{}) {
}

func (l *noopLogger) Warn(format string, v ...interface{}) {
}

func (l *noopLogger) Error(format string, v ...interface{}) {
}

// expected to terminate the process
func (l *noopLogger) Fatal(format string, v ...interface{}) {
}
