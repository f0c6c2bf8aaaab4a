// Package permissions derives the capability matrix for an identity and
// answers point permission queries.
//
// Everything here is pure and fail-closed: absence of data, an unknown
// capability, or a missing organization context all resolve to denial.
// The matrix is recomputed on demand and never mutated in place.
package permissions

// Capability names accepted by Check.
type Capability string

const (
	CapManageOrg        Capability = "manage_org"
	CapViewBudgets      Capability = "view_budgets"
	CapCreateBudgets    Capability = "create_budgets"
	CapApproveBudgets   Capability = "approve_budgets"
	CapManageUsers      Capability = "manage_users"
	CapViewReports      Capability = "view_reports"
	CapExportData       Capability = "export_data"
	CapViewDepartment   Capability = "view_department"
	CapEditDepartment   Capability = "edit_department"
	CapManageDepartment Capability = "manage_department"
)

// Wildcard is the matrix key meaning "all organizations" or "all
// departments" for roles with blanket access.
const Wildcard = "*"

// Identity is the minimal view of a user the matrix is computed from.
// IDs are ObjectID hex strings.
type Identity struct {
	Role            string
	OrganizationIDs []string
	DepartmentIDs   []string
}

// DepartmentGrant is the capability set for one department (or the
// department wildcard).
type DepartmentGrant struct {
	CanView   bool
	CanEdit   bool
	CanManage bool
}

// OrganizationGrant is the capability set for one organization (or the
// organization wildcard), with a nested department map.
type OrganizationGrant struct {
	CanManage         bool
	CanViewBudgets    bool
	CanCreateBudgets  bool
	CanApproveBudgets bool
	CanManageUsers    bool
	CanViewReports    bool
	CanExportData     bool
	Departments       map[string]DepartmentGrant
}

// Matrix maps organization id (or Wildcard) to its grant.
type Matrix struct {
	Organizations map[string]OrganizationGrant
}

func fullOrgGrant(depts map[string]DepartmentGrant) OrganizationGrant {
	return OrganizationGrant{
		CanManage:         true,
		CanViewBudgets:    true,
		CanCreateBudgets:  true,
		CanApproveBudgets: true,
		CanManageUsers:    true,
		CanViewReports:    true,
		CanExportData:     true,
		Departments:       depts,
	}
}

func wildcardDepts() map[string]DepartmentGrant {
	return map[string]DepartmentGrant{
		Wildcard: {CanView: true, CanEdit: true, CanManage: true},
	}
}

// Derive computes the permission matrix for id. Deterministic: the same
// identity always yields a structurally equal matrix.
//
// Policy table:
//   - app_admin: full capabilities under the wildcard org key.
//   - org_admin: full capabilities for each assigned organization, with a
//     wildcard department grant per organization.
//   - user: view/create budgets and view reports per assigned
//     organization; view/edit (never manage) per assigned department.
//   - anything else: empty matrix.
func Derive(id Identity) Matrix {
	m := Matrix{Organizations: map[string]OrganizationGrant{}}

	switch id.Role {
	case "app_admin":
		m.Organizations[Wildcard] = fullOrgGrant(wildcardDepts())

	case "org_admin":
		for _, orgID := range id.OrganizationIDs {
			m.Organizations[orgID] = fullOrgGrant(wildcardDepts())
		}

	case "user":
		for _, orgID := range id.OrganizationIDs {
			depts := make(map[string]DepartmentGrant, len(id.DepartmentIDs))
			for _, deptID := range id.DepartmentIDs {
				depts[deptID] = DepartmentGrant{CanView: true, CanEdit: true}
			}
			m.Organizations[orgID] = OrganizationGrant{
				CanViewBudgets:   true,
				CanCreateBudgets: true,
				CanViewReports:   true,
				Departments:      depts,
			}
		}
	}

	return m
}

// Check answers a point permission query against the derived matrix.
//
//   - app_admin passes unconditionally.
//   - A missing orgID denies (capabilities are meaningless without an
//     organization context).
//   - Department capabilities require deptID; the wildcard department
//     grant acts as a fallback when the specific key is absent.
//   - Unknown capability names deny.
func Check(id Identity, cap Capability, orgID, deptID string) bool {
	if id.Role == "app_admin" {
		return true
	}
	if orgID == "" {
		return false
	}

	m := Derive(id)
	grant, ok := m.Organizations[orgID]
	if !ok {
		return false
	}

	switch cap {
	case CapManageOrg:
		return grant.CanManage
	case CapViewBudgets:
		return grant.CanViewBudgets
	case CapCreateBudgets:
		return grant.CanCreateBudgets
	case CapApproveBudgets:
		return grant.CanApproveBudgets
	case CapManageUsers:
		return grant.CanManageUsers
	case CapViewReports:
		return grant.CanViewReports
	case CapExportData:
		return grant.CanExportData
	case CapViewDepartment:
		return deptFlag(grant, deptID, func(d DepartmentGrant) bool { return d.CanView })
	case CapEditDepartment:
		return deptFlag(grant, deptID, func(d DepartmentGrant) bool { return d.CanEdit })
	case CapManageDepartment:
		return deptFlag(grant, deptID, func(d DepartmentGrant) bool { return d.CanManage })
	default:
		return false
	}
}

// deptFlag resolves a department capability: the specific entry wins when
// present, the wildcard entry is the fallback.
func deptFlag(grant OrganizationGrant, deptID string, pick func(DepartmentGrant) bool) bool {
	if deptID == "" {
		return false
	}
	if d, ok := grant.Departments[deptID]; ok {
		return pick(d)
	}
	if d, ok := grant.Departments[Wildcard]; ok {
		return pick(d)
	}
	return false
}
