// internal/domain/models/selection.go
package models

// DepartmentRef is the lightweight department entry carried inside an
// OrganizationSelection.
type DepartmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Selection roles. Distinct from user roles: they describe the user's
// standing within one organization, not their application role.
const (
	SelectionRoleAdmin  = "admin"
	SelectionRoleMember = "member"
)

// OrganizationSelection is the session-scoped view of one organization
// the current identity may operate in: which role applies there and which
// departments are visible. It is derived per identity, never stored
// centrally; only the chosen one is persisted client-side.
type OrganizationSelection struct {
	ID          string          `json:"id"` // organization ObjectID hex
	Name        string          `json:"name"`
	Role        string          `json:"role"` // admin | member
	Departments []DepartmentRef `json:"departments"`
}
