package applications

import (
	"growf/platform-backend/internal/identity"
)

// IsOwner reports whether p is the company that owns app.
func IsOwner(p identity.Principal, app *Application) bool {
	return p.OwnsCompany(app.CompanyID)
}

// IsReviewer reports whether p may act on app as a reviewer: staff, or the
// organization that owns the parent program.
func IsReviewer(p identity.Principal, app *Application) bool {
	if app.Program == nil {
		return p.IsStaff()
	}
	return identity.CanReview(p, app.Program.OrganizationID)
}

// CanView is the read rule shared by applications, documents and messages.
func CanView(p identity.Principal, app *Application) bool {
	return IsOwner(p, app) || IsReviewer(p, app) || p.HasRole(identity.RoleAnalyst)
}
