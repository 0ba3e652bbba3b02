package auth

import (
	"github.com/google/uuid"

	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// Principal is the authenticated caller passed explicitly into every
// workflow operation. A foundation's UserID doubles as its foundation id.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (p Principal) IsZero() bool {
	return p.UserID == uuid.Nil
}

func (p Principal) IsFoundation() bool {
	return p.Role == enums.UserRoleFoundation
}

func (p Principal) IsAdopter() bool {
	return p.Role == enums.UserRoleAdopter
}

// Owns reports whether the principal is the account identified by id.
func (p Principal) Owns(id uuid.UUID) bool {
	return !p.IsZero() && p.UserID == id
}

// RequireRole fails with FORBIDDEN unless the principal holds role.
func (p Principal) RequireRole(role enums.UserRole) error {
	if p.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if p.Role != role {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only "+string(role)+" accounts can perform this action")
	}
	return nil
}

// RequireSelf fails with FORBIDDEN unless the principal is the account id.
func (p Principal) RequireSelf(id uuid.UUID) error {
	if p.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !p.Owns(id) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return nil
}

// RequireFoundation fails unless the principal is the foundation foundationID.
func (p Principal) RequireFoundation(foundationID uuid.UUID) error {
	if err := p.RequireRole(enums.UserRoleFoundation); err != nil {
		return err
	}
	return p.RequireSelf(foundationID)
}

// RequireAdopter fails unless the principal is the adopter userID.
func (p Principal) RequireAdopter(userID uuid.UUID) error {
	if err := p.RequireRole(enums.UserRoleAdopter); err != nil {
		return err
	}
	return p.RequireSelf(userID)
}
