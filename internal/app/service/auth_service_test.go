package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"complaint_desk/internal/common"
	"complaint_desk/internal/common/security"
	"complaint_desk/internal/domain/model"
	"complaint_desk/internal/domain/repository"
	"complaint_desk/internal/platform/logging"
	"complaint_desk/internal/platform/metrics"
	"complaint_desk/internal/platform/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func newAuthService(t *testing.T, limiter ratelimit.Limiter) (*AuthService, *security.TokenIssuer, repository.UserRepository) {
	t.Helper()
	users := repository.NewMemoryStore().Users()
	issuer := security.NewTokenIssuer([]byte("test-secret"), time.Hour, 0)
	return NewAuthService(users, issuer, limiter, metrics.New(), logging.Discard()), issuer, users
}

func TestAuthService_Register(t *testing.T) {
	svc, issuer, _ := newAuthService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: " Alice ", Email: "Alice@X.edu", Password: "secret1", Department: "CSE"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, "alice@x.edu", resp.User.Email)
	assert.Equal(t, model.RoleMember, resp.User.Role)
	assert.Len(t, resp.User.PasswordSalt, 16)

	identity, err := issuer.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, identity.UserID)
	assert.Equal(t, model.RoleMember, identity.Role)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Alice", Email: "alice@x.edu", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Alice Again", Email: "ALICE@x.edu", Password: "secret2"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newAuthService(t, nil)

	tests := []struct {
		name string
		req  RegisterRequest
		want string
	}{
		{"missing name", RegisterRequest{Email: "a@x.edu", Password: "secret1"}, "name is required"},
		{"bad email", RegisterRequest{Name: "A", Email: "nope", Password: "secret1"}, "email must be a valid email address"},
		{"short password", RegisterRequest{Name: "A", Email: "a@x.edu", Password: "12345"}, "password must be at least 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			require.ErrorIs(t, err, common.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, issuer, users := newAuthService(t, nil)
	ctx := context.Background()

	_, _, err := svc.SeedAdmin(ctx, "Admin", "admin@college.com", "admin123")
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: " ADMIN@college.com", Password: "admin123"})
	require.NoError(t, err)

	stored, err := users.FindByEmail(ctx, "admin@college.com")
	require.NoError(t, err)
	identity, err := issuer.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.Role, identity.Role)
	assert.Equal(t, stored.ID, identity.UserID)
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAuthService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Alice", Email: "alice@x.edu", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Email: "alice@x.edu", Password: "wrong-pass"})
	_, unknownEmail := svc.Login(ctx, LoginRequest{Email: "nobody@x.edu", Password: "secret1"})

	require.ErrorIs(t, wrongPassword, common.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, common.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, common.HTTPStatusFromError(wrongPassword), common.HTTPStatusFromError(unknownEmail))
}

func TestAuthService_Login_Throttled(t *testing.T) {
	svc, _, _ := newAuthService(t, ratelimit.NewLocalLimiter(2, time.Minute))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, LoginRequest{Email: "alice@x.edu", Password: "guess"})
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	}
	_, err := svc.Login(ctx, LoginRequest{Email: "Alice@x.edu", Password: "guess"})
	assert.ErrorIs(t, err, common.ErrTooManyRequests)

	_, err = svc.Login(ctx, LoginRequest{Email: "bob@x.edu", Password: "guess"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestAuthService_Login_ThrottleIsPerClientAddress(t *testing.T) {
	svc, _, _ := newAuthService(t, ratelimit.NewLocalLimiter(2, time.Minute))
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Alice", Email: "alice@x.edu", Password: "secret1"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, LoginRequest{Email: "alice@x.edu", Password: "guess", ClientIP: "203.0.113.9"})
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	}
	_, err = svc.Login(ctx, LoginRequest{Email: "alice@x.edu", Password: "guess", ClientIP: "203.0.113.9"})
	require.ErrorIs(t, err, common.ErrTooManyRequests)

	resp, err := svc.Login(ctx, LoginRequest{Email: "alice@x.edu", Password: "secret1", ClientIP: "198.51.100.4"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_Login_LimiterFailureFailsOpen(t *testing.T) {
	svc, _, _ := newAuthService(t, failingLimiter{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Alice", Email: "alice@x.edu", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "alice@x.edu", Password: "secret1"})
	assert.NoError(t, err)
}

func TestAuthService_SeedAdmin_Idempotent(t *testing.T) {
	svc, _, _ := newAuthService(t, nil)
	ctx := context.Background()

	first, created, err := svc.SeedAdmin(ctx, "Admin", "admin@college.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleAdmin, first.Role)

	second, created, err := svc.SeedAdmin(ctx, "Other", "Admin@College.com", "different1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	_, _, err = svc.SeedAdmin(ctx, "Admin", "root@college.com", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestAuthService_Me(t *testing.T) {
	svc, _, _ := newAuthService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "Alice", Email: "alice@x.edu", Password: "secret1"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, model.Identity{UserID: resp.User.ID, Role: model.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.edu", me.Email)

	_, err = svc.Me(ctx, model.Identity{UserID: "deleted", Role: model.RoleMember})
	assert.ErrorIs(t, err, common.ErrNotFound)
}
