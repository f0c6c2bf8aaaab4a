// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold. Exactly one at a time.
const (
	RoleAppAdmin = "app_admin"
	RoleOrgAdmin = "org_admin"
	RoleUser     = "user"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAppAdmin, RoleOrgAdmin, RoleUser:
		return true
	}
	return false
}

// NotificationPrefs holds the per-channel notification switches.
type NotificationPrefs struct {
	Email            bool `bson:"email" json:"email"`
	Push             bool `bson:"push" json:"push"`
	BudgetAlerts     bool `bson:"budget_alerts" json:"budget_alerts"`
	ApprovalRequests bool `bson:"approval_requests" json:"approval_requests"`
}

// Preferences is the free-form preference bag on a user.
type Preferences struct {
	Theme         string            `bson:"theme" json:"theme"` // light | dark | system
	Currency      string            `bson:"currency" json:"currency"`
	Language      string            `bson:"language" json:"language"`
	Notifications NotificationPrefs `bson:"notifications" json:"notifications"`
}

// DefaultPreferences returns the fixed preference bag assigned to new
// users and substituted when a stored profile is missing the field.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:    "system",
		Currency: "RWF",
		Language: "en",
		Notifications: NotificationPrefs{
			Email:            true,
			Push:             true,
			BudgetAlerts:     true,
			ApprovalRequests: true,
		},
	}
}

// User represents an authenticated identity: app admins, org admins, and
// regular users.
//
// OrganizationIDs and DepartmentIDs are always present (empty, never
// nil); the store normalizes on write and read. DepartmentIDs is only
// meaningful for role "user".
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	Role         string             `bson:"role" json:"role"`
	Status       string             `bson:"status,omitempty" json:"status,omitempty"`

	OrganizationIDs []primitive.ObjectID `bson:"organization_ids" json:"organization_ids"`
	DepartmentIDs   []primitive.ObjectID `bson:"department_ids" json:"department_ids"`

	Preferences Preferences `bson:"preferences" json:"preferences"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// MemberOf reports whether the user's organization set contains orgID.
func (u *User) MemberOf(orgID primitive.ObjectID) bool {
	for _, id := range u.OrganizationIDs {
		if id == orgID {
			return true
		}
	}
	return false
}
