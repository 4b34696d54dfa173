package middleware

import (
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-http-utils/headers"

	"github.com/binarydesk/deposit-service/internal/config"
)

// CorsHeadersMiddleware allows the configured origins. With cors disabled, every origin is
// allowed, which is only meant for local development.
func CorsHeadersMiddleware(conf *config.CorsConfig) func(http.Handler) http.Handler {
	origins := []string{"*"}
	if !conf.DisableCors {
		origins = splitOrigins(conf.AllowOrigin)
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{headers.Accept, headers.Authorization, headers.ContentType, apiKeyHeader, chimiddleware.RequestIDHeader},
		ExposedHeaders:   []string{chimiddleware.RequestIDHeader},
		AllowCredentials: !conf.DisableCors,
		MaxAge:           300,
	})
}

func splitOrigins(value string) []string {
	result := make([]string, 0)
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
