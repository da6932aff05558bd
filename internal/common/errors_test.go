package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", fmt.Errorf("register: %w", ErrValidation), http.StatusBadRequest},
		{"credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"missing token", ErrMissingToken, http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", ErrExpiredToken, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", fmt.Errorf("complaint c1: %w", ErrNotFound), http.StatusNotFound},
		{"duplicate email", ErrDuplicateEmail, http.StatusConflict},
		{"transition", ErrInvalidTransition, http.StatusConflict},
		{"stale write", fmt.Errorf("pgComplaintRepository.UpdateStatus: %w", ErrConflict), http.StatusConflict},
		{"throttled", ErrTooManyRequests, http.StatusTooManyRequests},
		{"store down", fmt.Errorf("find: %w", ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"pg unique", &pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	assert.Equal(t, "internal server error", PublicMessage(errors.New("dial tcp 10.0.0.3:27017: refused")))
	assert.Equal(t, "service unavailable", PublicMessage(fmt.Errorf("users.find: %w: socket closed", ErrStoreUnavailable)))
	assert.Equal(t, "invalid email or password", PublicMessage(fmt.Errorf("user x@y.edu: %w", ErrInvalidCredentials)))
	assert.Equal(t, "invalid token", PublicMessage(fmt.Errorf("%w: role claim has an unknown value", ErrInvalidToken)))
	assert.Equal(t, "validation failed: email is required", PublicMessage(fmt.Errorf("%w: email is required", ErrValidation)))
}

func TestRespondWithDomainError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithDomainError(rec, ErrForbidden)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"forbidden access"}`, rec.Body.String())
}

func TestValidate(t *testing.T) {
	type req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role" validate:"omitempty,oneof=member admin"`
	}

	require.NoError(t, Validate(req{Email: "alice@x.edu", Password: "secret1"}))

	err := Validate(req{Email: "not-an-email", Password: "secret1"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "email must be a valid email address")

	err = Validate(req{Email: "alice@x.edu", Password: "123"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "password must be at least 6 characters")

	err = Validate(req{Email: "alice@x.edu", Password: "secret1", Role: "root"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "role must be one of [member admin]")
}
