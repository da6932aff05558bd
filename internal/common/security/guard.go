package security

import (
	"context"

	"complaint_desk/internal/common"
	"complaint_desk/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

// Authorize resolves the caller from the token that jwtauth.Verifier placed in
// ctx. requiredRole RoleAdmin demands exactly admin; RoleMember (or "")
// accepts any authenticated role.
func Authorize(ctx context.Context, requiredRole model.Role) (*model.Identity, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return nil, translateVerifyError(err)
	}
	if token == nil {
		return nil, common.ErrMissingToken
	}

	identity, err := IdentityFromClaims(claims)
	if err != nil {
		return nil, err
	}
	if !satisfies(identity.Role, requiredRole) {
		return nil, common.ErrForbidden
	}
	return identity, nil
}

func satisfies(have, required model.Role) bool {
	switch required {
	case model.RoleAdmin:
		return have == model.RoleAdmin
	default:
		return have.Valid()
	}
}
