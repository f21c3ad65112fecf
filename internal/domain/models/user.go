// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an administrator of the platform. Readers are anonymous and
// never have a User record.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email string             `bson:"email" json:"email"` // stored lowercase, unique
	Name  string             `bson:"name,omitempty" json:"name,omitempty"`

	PasswordHash string `bson:"password_hash" json:"-"` // bcrypt hash (never in JSON)

	Role   string `bson:"role" json:"role"`     // admin, super_admin
	Status string `bson:"status" json:"status"` // active, disabled

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// User roles
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User statuses
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// IsValidStatus checks if a user status is valid.
func IsValidStatus(status string) bool {
	return status == StatusActive || status == StatusDisabled
}
