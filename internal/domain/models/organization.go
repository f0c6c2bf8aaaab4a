// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrganizationSettings is the per-tenant settings bag.
type OrganizationSettings struct {
	FiscalYearStart     string `bson:"fiscal_year_start" json:"fiscal_year_start"` // "MM-DD"
	ApprovalWorkflow    bool   `bson:"approval_workflow" json:"approval_workflow"`
	MultiCurrency       bool   `bson:"multi_currency" json:"multi_currency"`
	ComplianceReporting bool   `bson:"compliance_reporting" json:"compliance_reporting"`
}

// DefaultOrganizationSettings is the fixed settings bag applied at creation.
func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{
		FiscalYearStart:  "01-01",
		ApprovalWorkflow: true,
	}
}

// Subscription tracks the tenant's plan state.
type Subscription struct {
	Plan      string     `bson:"plan" json:"plan"`     // free | pro | enterprise
	Status    string     `bson:"status" json:"status"` // active | inactive | suspended
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
}

// Organization is a tenant boundary. It owns departments and carries
// denormalized admin/member id sets. Includes case/diacritic-insensitive
// name for search/sort.
type Organization struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	NameCI      string             `bson:"name_ci"` // always stored
	Description string             `bson:"description,omitempty"`
	Country     string             `bson:"country,omitempty"`
	Currency    string             `bson:"currency,omitempty"`

	AdminIDs  []primitive.ObjectID `bson:"admin_ids"`
	MemberIDs []primitive.ObjectID `bson:"member_ids"`

	Settings     OrganizationSettings `bson:"settings"`
	Subscription Subscription         `bson:"subscription"`

	CreatedBy primitive.ObjectID `bson:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// HasAdmin reports whether userID is in the organization's admin set.
func (o *Organization) HasAdmin(userID primitive.ObjectID) bool {
	for _, id := range o.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}
