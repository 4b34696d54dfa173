package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-http-utils/headers"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/binarydesk/deposit-service/internal/config"
	"github.com/binarydesk/deposit-service/internal/restapi/common"
)

const (
	testApiKey     = "deposit-service-api-key"
	testCookieName = "JWT"
	depositsPath   = "/api/rest/v1/deposits"
)

var (
	keysOnce    sync.Once
	platformKey *rsa.PrivateKey
	rotatedKey  *rsa.PrivateKey
	foreignKey  *rsa.PrivateKey
)

func signingKeys(t *testing.T) {
	t.Helper()
	keysOnce.Do(func() {
		var err error
		platformKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		rotatedKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		foreignKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
	})
}

func publicKeyPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

type tokenSpec struct {
	method  jwt.SigningMethod
	key     interface{}
	subject string
	roles   []string
	expires time.Time
}

func signToken(t *testing.T, spec tokenSpec) string {
	t.Helper()

	if spec.method == nil {
		spec.method = jwt.SigningMethodRS256
	}
	if spec.key == nil {
		spec.key = platformKey
	}
	if spec.expires.IsZero() {
		spec.expires = time.Now().Add(time.Hour)
	}

	claims := common.AllClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   spec.subject,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(spec.expires),
		},
		CustomClaims: common.CustomClaims{
			Global: common.GlobalClaims{
				Name:  "Ana Souza",
				EMail: "ana@example.com",
				Roles: spec.roles,
			},
		},
	}

	signed, err := jwt.NewWithClaims(spec.method, claims).SignedString(spec.key)
	require.NoError(t, err)
	return signed
}

func securityConfig(t *testing.T) *config.SecurityConfig {
	t.Helper()
	signingKeys(t)

	return &config.SecurityConfig{
		Fixed: config.FixedTokenConfig{
			Api: testApiKey,
		},
		Oidc: config.OpenIdConnectConfig{
			TokenCookieName:    testCookieName,
			TokenPublicKeysPEM: []string{publicKeyPEM(t, rotatedKey), publicKeyPEM(t, platformKey)},
			AdminRole:          "admin",
		},
	}
}

func TestNewAuthenticatorRejectsBrokenKey(t *testing.T) {
	_, err := newAuthenticator(&config.SecurityConfig{
		Oidc: config.OpenIdConnectConfig{
			TokenPublicKeysPEM: []string{"-----BEGIN PUBLIC KEY-----\nMIIBIjANBgkqhkiG9w\n-----END PUBLIC KEY-----"},
		},
	})
	require.ErrorContains(t, err, "security.oidc.token_public_keys_PEM[0]")

	require.Panics(t, func() {
		CheckRequestAuthorization(&config.SecurityConfig{
			Oidc: config.OpenIdConnectConfig{
				TokenPublicKeysPEM: []string{"not a key"},
			},
		})
	})
}

func TestCheckRequestAuthorization(t *testing.T) {
	conf := securityConfig(t)

	type request struct {
		apiKey        string
		authorization string
		cookie        *http.Cookie
	}

	type expected struct {
		apiKey      string
		token       bool
		subject     string
		roles       []string
		failMessage string
	}

	userToken := signToken(t, tokenSpec{subject: "101", roles: []string{"trader"}})
	adminToken := signToken(t, tokenSpec{method: jwt.SigningMethodRS512, subject: "1", roles: []string{"admin"}})
	rotatedToken := signToken(t, tokenSpec{key: rotatedKey, subject: "202"})

	tests := []struct {
		name     string
		request  request
		expected expected
	}{
		{
			name:     "service call with the configured api key",
			request:  request{apiKey: testApiKey},
			expected: expected{apiKey: testApiKey},
		},
		{
			name:     "wrong api key",
			request:  request{apiKey: "guessed-key"},
			expected: expected{failMessage: errApiKeyMismatch.Error()},
		},
		{
			name:     "api key is checked before the token",
			request:  request{apiKey: "guessed-key", authorization: "Bearer " + userToken},
			expected: expected{failMessage: errApiKeyMismatch.Error()},
		},
		{
			name:     "anonymous",
			expected: expected{failMessage: errNoCredentials.Error()},
		},
		{
			name:     "user token in the authorization header",
			request:  request{authorization: "Bearer " + userToken},
			expected: expected{token: true, subject: "101", roles: []string{"trader"}},
		},
		{
			name:     "admin token signed with RS512 in the session cookie",
			request:  request{cookie: &http.Cookie{Name: testCookieName, Value: adminToken}},
			expected: expected{token: true, subject: "1", roles: []string{"admin"}},
		},
		{
			name:     "token signed with the second configured key",
			request:  request{authorization: "Bearer " + rotatedToken},
			expected: expected{token: true, subject: "202"},
		},
		{
			name:     "session cookie under another name",
			request:  request{cookie: &http.Cookie{Name: "SESSION", Value: userToken}},
			expected: expected{failMessage: errNoCredentials.Error()},
		},
		{
			name:     "header without bearer scheme",
			request:  request{authorization: userToken},
			expected: expected{failMessage: errMalformedAuthorization.Error()},
		},
		{
			name:     "bearer scheme without token",
			request:  request{authorization: "Bearer "},
			expected: expected{failMessage: errMalformedAuthorization.Error()},
		},
		{
			name:     "two tokens",
			request:  request{authorization: "Bearer " + userToken + " " + adminToken},
			expected: expected{failMessage: errMalformedAuthorization.Error()},
		},
		{
			name:     "token without subject",
			request:  request{authorization: "Bearer " + signToken(t, tokenSpec{roles: []string{"admin"}})},
			expected: expected{failMessage: errTokenWithoutSubject.Error()},
		},
		{
			name:     "expired token",
			request:  request{authorization: "Bearer " + signToken(t, tokenSpec{subject: "101", expires: time.Now().Add(-time.Minute)})},
			expected: expected{failMessage: errTokenRejected.Error()},
		},
		{
			name:     "token from an unknown issuer",
			request:  request{authorization: "Bearer " + signToken(t, tokenSpec{key: foreignKey, subject: "101"})},
			expected: expected{failMessage: errTokenRejected.Error()},
		},
		{
			name: "symmetric signature is not accepted",
			request: request{authorization: "Bearer " + signToken(t, tokenSpec{
				method:  jwt.SigningMethodHS256,
				key:     []byte("shared-secret"),
				subject: "101",
			})},
			expected: expected{failMessage: errTokenRejected.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, depositsPath, nil)
			if tt.request.apiKey != "" {
				r.Header.Set(apiKeyHeader, tt.request.apiKey)
			}
			if tt.request.authorization != "" {
				r.Header.Set(headers.Authorization, tt.request.authorization)
			}
			if tt.request.cookie != nil {
				r.AddCookie(tt.request.cookie)
			}

			var reached *http.Request
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = r
				w.WriteHeader(http.StatusNoContent)
			})

			w := httptest.NewRecorder()
			CheckRequestAuthorization(conf)(next).ServeHTTP(w, r)

			if tt.expected.failMessage != "" {
				require.Nil(t, reached)
				require.Equal(t, http.StatusUnauthorized, w.Code)

				apiErr := common.APIError{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
				require.Equal(t, common.AuthUnauthorizedMessage, apiErr.Message)
				require.Equal(t, tt.expected.failMessage, apiErr.Details.Get("details"))
				return
			}

			require.NotNil(t, reached)
			require.Equal(t, http.StatusNoContent, w.Code)
			ctx := reached.Context()

			apiKey, _ := ctx.Value(common.CtxKeyAPIKey{}).(string)
			require.Equal(t, tt.expected.apiKey, apiKey)

			_, hasToken := ctx.Value(common.CtxKeyToken{}).(string)
			require.Equal(t, tt.expected.token, hasToken)

			if tt.expected.token {
				claims, ok := ctx.Value(common.CtxKeyClaims{}).(*common.AllClaims)
				require.True(t, ok)
				require.Equal(t, tt.expected.subject, claims.Subject)
				require.ElementsMatch(t, tt.expected.roles, claims.Global.Roles)
			}
		})
	}
}

func TestCheckRequestAuthorizationWithoutApiKeyConfigured(t *testing.T) {
	conf := securityConfig(t)
	conf.Fixed.Api = ""

	r := httptest.NewRequest(http.MethodGet, depositsPath, nil)
	r.Header.Set(apiKeyHeader, "anything")
	w := httptest.NewRecorder()

	CheckRequestAuthorization(conf)(http.NotFoundHandler()).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
