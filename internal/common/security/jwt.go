package security

import (
	"context"
	"errors"
	"time"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	claimUserID = "user_id"
	claimRole   = "role"
)

// TokenIssuer mints and verifies HS256 session tokens with a fixed lifetime.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

// NewTokenIssuer builds an issuer. skew is the only tolerance applied to exp/iat checks.
func NewTokenIssuer(secret []byte, ttl, skew time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", secret, nil, jwxjwt.WithAcceptableSkew(skew)),
		ttl:  ttl,
		now:  time.Now,
	}
}

// JWTAuth exposes the underlying verifier for jwtauth.Verifier.
func (i *TokenIssuer) JWTAuth() *jwtauth.JWTAuth {
	return i.auth
}

// GenerateToken signs a token asserting userID and role.
func (i *TokenIssuer) GenerateToken(userID string, role model.Role) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := jwt.MapClaims{
		claimUserID: userID,
		claimRole:   string(role),
	}
	jwtauth.SetIssuedAt(claims, now)
	jwtauth.SetExpiry(claims, expiresAt)

	_, tokenString, err := i.auth.Encode(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// VerifyToken checks signature then expiry and returns the asserted identity.
func (i *TokenIssuer) VerifyToken(tokenString string) (*model.Identity, error) {
	if tokenString == "" {
		return nil, common.ErrMissingToken
	}
	token, err := jwtauth.VerifyToken(i.auth, tokenString)
	if err != nil {
		return nil, translateVerifyError(err)
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return IdentityFromClaims(claims)
}

// IdentityFromClaims extracts and checks the identity claims of a verified token.
func IdentityFromClaims(claims jwt.MapClaims) (*model.Identity, error) {
	userID, err := GetUserIDFromClaims(claims)
	if err != nil {
		return nil, common.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	role, err := GetUserRoleFromClaims(claims)
	if err != nil {
		return nil, common.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return &model.Identity{UserID: userID, Role: role}, nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims[claimUserID].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (model.Role, error) {
	role, ok := claims[claimRole].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	if !model.Role(role).Valid() {
		return "", errors.New("role claim has an unknown value")
	}
	return model.Role(role), nil
}

func translateVerifyError(err error) error {
	switch {
	case errors.Is(err, jwtauth.ErrNoTokenFound):
		return common.ErrMissingToken
	case errors.Is(err, jwtauth.ErrExpired):
		return common.ErrExpiredToken
	default:
		return common.ErrInvalidToken
	}
}
