package middleware

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-http-utils/headers"
	"github.com/golang-jwt/jwt/v4"

	"github.com/binarydesk/deposit-service/internal/config"
	"github.com/binarydesk/deposit-service/internal/logging"
	"github.com/binarydesk/deposit-service/internal/restapi/common"
)

const apiKeyHeader = "X-Api-Key"
const bearerPrefix = "Bearer "

var (
	errNoCredentials          = errors.New("neither api key nor bearer token supplied")
	errApiKeyMismatch         = errors.New("api key does not match the configured value")
	errMalformedAuthorization = errors.New("authorization header must have the form 'Bearer <token>'")
	errTokenRejected          = errors.New("token is expired or not signed by a configured key")
	errTokenWithoutSubject    = errors.New("token carries no subject")
)

var acceptedSigningMethods = []string{"RS256", "RS512"}

// authenticator decides who is calling. Platform users present the session JWT issued by the
// trading platform, other services present the fixed api key.
type authenticator struct {
	apiKey     string
	cookieName string
	keys       []*rsa.PublicKey
}

func newAuthenticator(conf *config.SecurityConfig) (*authenticator, error) {
	keys := make([]*rsa.PublicKey, 0, len(conf.Oidc.TokenPublicKeysPEM))
	for idx, keyPEM := range conf.Oidc.TokenPublicKeysPEM {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(keyPEM))
		if err != nil {
			return nil, fmt.Errorf("security.oidc.token_public_keys_PEM[%d]: %w", idx, err)
		}
		keys = append(keys, key)
	}

	return &authenticator{
		apiKey:     conf.Fixed.Api,
		cookieName: conf.Oidc.TokenCookieName,
		keys:       keys,
	}, nil
}

// authenticate returns the request context enriched with the caller's credentials.
// An api key header takes precedence over any token.
func (a *authenticator) authenticate(r *http.Request) (context.Context, error) {
	ctx := r.Context()

	if key := r.Header.Get(apiKeyHeader); key != "" {
		if a.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) != 1 {
			return nil, errApiKeyMismatch
		}
		return context.WithValue(ctx, common.CtxKeyAPIKey{}, key), nil
	}

	tokenString, err := a.bearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := a.verify(tokenString)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, common.CtxKeyToken{}, tokenString)
	return context.WithValue(ctx, common.CtxKeyClaims{}, claims), nil
}

// bearerToken reads the Authorization header, falling back to the session cookie.
func (a *authenticator) bearerToken(r *http.Request) (string, error) {
	if header := r.Header.Get(headers.Authorization); header != "" {
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || token == "" || strings.Contains(token, " ") {
			return "", errMalformedAuthorization
		}
		return token, nil
	}

	if a.cookieName != "" {
		if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}

	return "", errNoCredentials
}

// verify tries each configured key in turn, so keys can be rotated by listing both.
func (a *authenticator) verify(tokenString string) (*common.AllClaims, error) {
	for _, key := range a.keys {
		key := key
		claims := &common.AllClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods(acceptedSigningMethods))
		if err != nil || !token.Valid {
			continue
		}

		if claims.Subject == "" {
			return nil, errTokenWithoutSubject
		}
		return claims, nil
	}

	return nil, errTokenRejected
}

// CheckRequestAuthorization rejects requests without a valid api key or session token.
// It panics on an unparseable public key, which config validation rules out beforehand.
func CheckRequestAuthorization(conf *config.SecurityConfig) func(http.Handler) http.Handler {
	auth, err := newAuthenticator(conf)
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := auth.authenticate(r)
			if err != nil {
				reqID := logging.GetRequestID(r.Context())
				logger := logging.LoggerFromContext(r.Context())
				logger.Debug("rejected %s %s: %v", r.Method, r.URL.Path, err)
				common.SendUnauthorizedResponse(w, reqID, logger, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
