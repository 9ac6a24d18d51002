package domain

import "github.com/google/uuid"

// Roles carried in a TenantContext.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleViewer     = "viewer"
)

// TenantContext identifies the company and user an operation runs for. It is
// passed explicitly into every service call; repositories scope every query
// by CompanyID.
type TenantContext struct {
	CompanyID uuid.UUID `json:"company_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
}

// NewTenantContext builds a tenant context.
func NewTenantContext(companyID, userID uuid.UUID, role string) TenantContext {
	return TenantContext{CompanyID: companyID, UserID: userID, Role: role}
}

func (t TenantContext) IsValid() bool {
	return t.CompanyID != uuid.Nil && IsKnownRole(t.Role)
}

// CanRead reports whether the role may view rentals, balances and reports.
func (t TenantContext) CanRead() bool {
	return IsKnownRole(t.Role)
}

// CanWrite reports whether the role may create rentals and record payments.
func (t TenantContext) CanWrite() bool {
	switch t.Role {
	case RoleSuperAdmin, RoleAdmin, RoleManager:
		return true
	}
	return false
}

func IsKnownRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleViewer:
		return true
	}
	return false
}
