// internal/domain/models/department.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Department is a sub-unit of exactly one organization.
// OrganizationID is immutable after creation.
type Department struct {
	ID             primitive.ObjectID `bson:"_id"`
	Name           string             `bson:"name"`
	NameCI         string             `bson:"name_ci"`
	Description    string             `bson:"description,omitempty"`
	OrganizationID primitive.ObjectID `bson:"organization_id"`
	ManagerID      primitive.ObjectID `bson:"manager_id,omitempty"`

	MemberIDs []primitive.ObjectID `bson:"member_ids"`

	// BudgetLimit is in minor currency units; nil means no limit.
	BudgetLimit *int64 `bson:"budget_limit,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// HasMember reports whether userID is in the department's member set.
func (d *Department) HasMember(userID primitive.ObjectID) bool {
	for _, id := range d.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
