package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"complaint_desk/internal/common/security"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/platform/logging"
	"complaint_desk/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("middleware-secret")

func newGuardedRouter(t *testing.T) http.Handler {
	t.Helper()
	return newGuardedRouterWithLogger(t, logging.Discard())
}

func newGuardedRouterWithLogger(t *testing.T, logger *slog.Logger) http.Handler {
	t.Helper()
	issuer := security.NewTokenIssuer(testSecret, time.Hour, 0)
	auth := NewAuth(metrics.New(), logger)

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(issuer.JWTAuth()))
	echo := func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(identity.UserID + ":" + string(identity.Role)))
	}
	r.With(auth.Authenticator).Get("/member", echo)
	r.With(auth.AdminOnly).Get("/admin", echo)
	return r
}

func tokenFor(t *testing.T, ttl time.Duration, userID string, role model.Role) string {
	t.Helper()
	token, _, err := security.NewTokenIssuer(testSecret, ttl, 0).GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func TestRequireRole(t *testing.T) {
	router := newGuardedRouter(t)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
		wantBody string
	}{
		{"no token", "/member", "", http.StatusUnauthorized, "authorization token required"},
		{"garbage token", "/member", "not.a.jwt", http.StatusUnauthorized, "invalid token"},
		{"expired token", "/member", tokenFor(t, -time.Minute, "alice", model.RoleMember), http.StatusUnauthorized, "token has expired"},
		{"member on member route", "/member", tokenFor(t, time.Hour, "alice", model.RoleMember), http.StatusOK, "alice:member"},
		{"admin on member route", "/member", tokenFor(t, time.Hour, "root", model.RoleAdmin), http.StatusOK, "root:admin"},
		{"member on admin route", "/admin", tokenFor(t, time.Hour, "alice", model.RoleMember), http.StatusForbidden, "forbidden access"},
		{"admin on admin route", "/admin", tokenFor(t, time.Hour, "root", model.RoleAdmin), http.StatusOK, "root:admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestRequireRole_ExpiredTokenRejectedEveryTime(t *testing.T) {
	router := newGuardedRouter(t)
	expired := tokenFor(t, -time.Second, "alice", model.RoleMember)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/member", nil)
		req.Header.Set("Authorization", "Bearer "+expired)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole_BadClaimsDetailIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	router := newGuardedRouterWithLogger(t, logging.New(&buf, "info", "json"))

	signer := jwtauth.New("HS256", testSecret, nil)
	claims := map[string]interface{}{"user_id": "alice", "role": "root"}
	jwtauth.SetExpiry(claims, time.Now().Add(time.Hour))
	_, token, err := signer.Encode(claims)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/member", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"invalid token"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "role claim has an unknown value")
	assert.Contains(t, buf.String(), `"reason":"invalid_token"`)
}

func TestRequestLoggerAndMetrics(t *testing.T) {
	var buf bytes.Buffer
	m := metrics.New()

	r := chi.NewRouter()
	r.Use(RequestLogger(logging.New(&buf, "info", "json")))
	r.Use(Metrics(m))
	r.Get("/api/complaints/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/complaints/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/api/complaints/42"`)

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `route="/api/complaints/{id}"`)
}
