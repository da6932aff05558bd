package security

import (
	"testing"
	"time"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify_Success(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("super-secret"), time.Hour, 0)
	tok, exp, err := issuer.GenerateToken("user-123", model.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := issuer.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", id.UserID)
	assert.Equal(t, model.RoleAdmin, id.Role)
}

func TestVerifyToken_ExpiredIsAlwaysRejected(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), -time.Minute, 0)
	tok, _, err := issuer.GenerateToken("u1", model.RoleMember)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = issuer.VerifyToken(tok)
		require.ErrorIs(t, err, common.ErrExpiredToken)
	}
}

func TestVerifyToken_SkewToleranceIsExplicit(t *testing.T) {
	t.Parallel()

	// Expired 30s ago, tolerated only when the configured skew covers it.
	strict := NewTokenIssuer([]byte("secret"), -30*time.Second, 0)
	tok, _, err := strict.GenerateToken("u1", model.RoleMember)
	require.NoError(t, err)
	_, err = strict.VerifyToken(tok)
	require.ErrorIs(t, err, common.ErrExpiredToken)

	lenient := NewTokenIssuer([]byte("secret"), time.Hour, time.Minute)
	_, err = lenient.VerifyToken(tok)
	require.NoError(t, err)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewTokenIssuer([]byte("right-secret"), time.Hour, 0).GenerateToken("u2", model.RoleMember)
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("wrong-secret"), time.Hour, 0).VerifyToken(tok)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerifyToken_MalformedAndEmpty(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("k"), time.Hour, 0)

	_, err := issuer.VerifyToken("not.a.jwt")
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = issuer.VerifyToken("")
	require.ErrorIs(t, err, common.ErrMissingToken)
}

func TestIdentityFromClaims(t *testing.T) {
	t.Parallel()

	_, err := IdentityFromClaims(jwt.MapClaims{"role": "member"})
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = IdentityFromClaims(jwt.MapClaims{"user_id": "u1", "role": "superuser"})
	require.ErrorIs(t, err, common.ErrInvalidToken)

	id, err := IdentityFromClaims(jwt.MapClaims{"user_id": "u1", "role": "member"})
	require.NoError(t, err)
	assert.Equal(t, model.Identity{UserID: "u1", Role: model.RoleMember}, *id)
}
