package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"complaint_desk/internal/common"
	"complaint_desk/internal/common/security"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/platform/metrics"
)

type contextKey string

const IdentityCtxKey contextKey = "identity"

// Auth guards routes using the token jwtauth.Verifier placed in the request context.
type Auth struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAuth(m *metrics.Metrics, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{metrics: m, logger: logger}
}

// Authenticator admits any authenticated caller.
func (a *Auth) Authenticator(next http.Handler) http.Handler {
	return a.RequireRole(model.RoleMember)(next)
}

func (a *Auth) AdminOnly(next http.Handler) http.Handler {
	return a.RequireRole(model.RoleAdmin)(next)
}

func (a *Auth) RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := security.Authorize(r.Context(), role)
			if err != nil {
				reason := failureReason(err)
				a.metrics.AuthFailure(reason)
				// Claim detail goes to the log only.
				a.logger.InfoContext(r.Context(), "request not authorized",
					"reason", reason, "path", r.URL.Path, "error", err)
				common.RespondWithDomainError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, common.ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	default:
		return "invalid_token"
	}
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, IdentityCtxKey, identity)
}

// GetIdentityFromContext returns the caller stored by RequireRole.
func GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(IdentityCtxKey).(model.Identity)
	return identity, ok
}
