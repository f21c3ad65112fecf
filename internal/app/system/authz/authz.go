// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/docuverse/internal/app/system/auth"
	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), Mongo ObjectID, and a found flag.
// The ObjectID is NilObjectID for non-database callers such as the API key user.
// Without a user it returns "visitor", NilObjectID, false.
func UserCtx(r *http.Request) (role string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.UserID(), true
}

// IsLoggedIn reports whether there is a user in the request context.
func IsLoggedIn(r *http.Request) bool {
	_, ok := auth.CurrentUser(r)
	return ok
}

// IsAdmin reports whether the user holds any admin role.
func IsAdmin(role string) bool {
	role = strings.ToLower(role)
	return role == models.RoleAdmin || role == models.RoleSuperAdmin
}

// IsSuperAdmin reports whether the role is super_admin.
func IsSuperAdmin(role string) bool {
	return strings.ToLower(role) == models.RoleSuperAdmin
}

// Permissions is the capability set derived from a role.
type Permissions struct {
	CanCreate         bool `json:"canCreate"`
	CanEdit           bool `json:"canEdit"`
	CanView           bool `json:"canView"`
	CanDelete         bool `json:"canDelete"`
	CanManageUsers    bool `json:"canManageUsers"`
	CanManageSettings bool `json:"canManageSettings"`
}

// For returns the permissions granted to role.
func For(role string) Permissions {
	admin := IsAdmin(role)
	super := IsSuperAdmin(role)
	return Permissions{
		CanCreate:         admin,
		CanEdit:           admin,
		CanView:           admin,
		CanDelete:         super,
		CanManageUsers:    super,
		CanManageSettings: super,
	}
}

// FromRequest returns the permissions of the request's user, or none.
func FromRequest(r *http.Request) Permissions {
	role, _, ok := UserCtx(r)
	if !ok {
		return Permissions{}
	}
	return For(role)
}

// HasRole reports whether the current user has one of the specified roles.
func HasRole(r *http.Request, roles ...string) bool {
	role, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, allowed := range roles {
		if strings.ToLower(allowed) == role {
			return true
		}
	}
	return false
}
