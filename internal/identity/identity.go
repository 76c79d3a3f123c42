// Package identity holds the authenticated caller and the access predicates
// shared by every feature package.
package identity

import (
	"github.com/google/uuid"
)

type Role string

const (
	RoleCompany      Role = "COMPANY"
	RoleOrganization Role = "ORGANIZATION"
	RoleAdmin        Role = "ADMIN"
	RoleSuperadmin   Role = "SUPERADMIN"
	RoleAnalyst      Role = "ANALYST"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCompany, RoleOrganization, RoleAdmin, RoleSuperadmin, RoleAnalyst:
		return true
	default:
		return false
	}
}

// Principal is the caller resolved from the bearer token.
type Principal struct {
	UserID         uuid.UUID
	Role           Role
	OrganizationID *uuid.UUID
	CompanyID      *uuid.UUID
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// IsStaff is true for platform administrators.
func (p Principal) IsStaff() bool {
	return p.HasRole(RoleAdmin, RoleSuperadmin)
}

// OwnsOrganization is true when p is the organization account orgID.
func (p Principal) OwnsOrganization(orgID uuid.UUID) bool {
	return p.Role == RoleOrganization && p.OrganizationID != nil && *p.OrganizationID == orgID
}

// OwnsCompany is true when p is the company account companyID.
func (p Principal) OwnsCompany(companyID uuid.UUID) bool {
	return p.Role == RoleCompany && p.CompanyID != nil && *p.CompanyID == companyID
}

// CanReview decides whether p may change the status of an application whose
// program belongs to programOrgID. The same rule governs program management.
func CanReview(p Principal, programOrgID uuid.UUID) bool {
	return p.IsStaff() || p.OwnsOrganization(programOrgID)
}

// CanManageProgram is the ownership rule for program mutations.
func CanManageProgram(p Principal, programOrgID uuid.UUID) bool {
	return CanReview(p, programOrgID)
}
