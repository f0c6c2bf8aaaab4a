// internal/app/features/departments/form.go
package departments

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/fiscora/fiscora/internal/app/policy/deptpolicy"
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/htmlsanitize"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /organizations/{id}/departments/new                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := shortCtx(r)
	defer cancel()

	org, ok := h.orgFromRoute(w, r, ctx)
	if !ok {
		return
	}
	if !deptpolicy.CanCreateDepartment(r, org.ID) {
		h.ErrLog.LogBadRequest(w, r, "create department without permission", nil,
			"You do not have permission to add departments.", h.basePath(org))
		return
	}

	options, err := h.memberOptions(ctx, org)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member options", err, "Unable to load members.", h.basePath(org))
		return
	}

	data := formData{Org: org, MemberIDs: map[string]bool{}, Options: options}
	formutil.SetBase(&data.Base, r, "New Department", h.basePath(org))
	templates.Render(w, r, "department_form", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /organizations/{id}/departments                                         |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/organizations")
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	org, ok := h.orgFromRoute(w, r, ctx)
	if !ok {
		return
	}
	if !deptpolicy.CanCreateDepartment(r, org.ID) {
		h.ErrLog.LogBadRequest(w, r, "create department without permission", nil,
			"You do not have permission to add departments.", h.basePath(org))
		return
	}

	in, renderErr := h.parseForm(w, r, org, "", false)
	if in == nil {
		return
	}

	dept := models.Department{
		Name:           in.name,
		Description:    in.description,
		OrganizationID: org.ID,
		ManagerID:      in.managerID,
		MemberIDs:      in.memberIDs,
		BudgetLimit:    in.budgetLimit,
	}
	created, err := h.Depts.Create(ctx, dept)
	if err != nil {
		h.Log.Error("create department", zap.Error(err), zap.String("org_id", org.ID.Hex()))
		renderErr("Database error while creating department.")
		return
	}

	h.syncUserAssignments(ctx, created.ID, nil, in.memberIDs)

	h.Flash.Success(w, r, "Department \""+created.Name+"\" created.")
	http.Redirect(w, r, h.basePath(org), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /organizations/{id}/departments/{deptID}/edit                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := shortCtx(r)
	defer cancel()

	org, ok := h.orgFromRoute(w, r, ctx)
	if !ok {
		return
	}
	dept, ok := h.deptFromRoute(w, r, ctx, org)
	if !ok {
		return
	}
	if !deptpolicy.CanManageDepartment(r, org.ID, dept.ID) {
		h.ErrLog.LogBadRequest(w, r, "edit department without permission", nil,
			"You do not have permission to edit that department.", h.basePath(org))
		return
	}

	options, err := h.memberOptions(ctx, org)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load member options", err, "Unable to load members.", h.basePath(org))
		return
	}

	memberSet := make(map[string]bool, len(dept.MemberIDs))
	for _, id := range dept.MemberIDs {
		memberSet[id.Hex()] = true
	}

	budget := ""
	if dept.BudgetLimit != nil {
		budget = strconv.FormatInt(*dept.BudgetLimit, 10)
	}

	data := formData{
		Org:         org,
		DeptID:      dept.ID.Hex(),
		Name:        dept.Name,
		Description: dept.Description,
		ManagerID:   dept.ManagerID.Hex(),
		MemberIDs:   memberSet,
		BudgetLimit: budget,
		Options:     options,
		IsEdit:      true,
	}
	formutil.SetBase(&data.Base, r, "Edit Department", h.basePath(org))
	templates.Render(w, r, "department_form", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /organizations/{id}/departments/{deptID}/edit                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/organizations")
		return
	}

	ctx, cancel := shortCtx(r)
	defer cancel()

	org, ok := h.orgFromRoute(w, r, ctx)
	if !ok {
		return
	}
	dept, ok := h.deptFromRoute(w, r, ctx, org)
	if !ok {
		return
	}
	if !deptpolicy.CanManageDepartment(r, org.ID, dept.ID) {
		h.ErrLog.LogBadRequest(w, r, "edit department without permission", nil,
			"You do not have permission to edit that department.", h.basePath(org))
		return
	}

	in, renderErr := h.parseForm(w, r, org, dept.ID.Hex(), true)
	if in == nil {
		return
	}

	// OrganizationID is immutable; the store ignores it on update.
	err := h.Depts.Update(ctx, dept.ID, models.Department{
		Name:        in.name,
		Description: in.description,
		ManagerID:   in.managerID,
		MemberIDs:   in.memberIDs,
		BudgetLimit: in.budgetLimit,
	})
	if err != nil {
		h.Log.Error("update department", zap.Error(err), zap.String("dept_id", dept.ID.Hex()))
		renderErr("Database error while saving department.")
		return
	}

	h.syncUserAssignments(ctx, dept.ID, dept.MemberIDs, in.memberIDs)

	h.Flash.Success(w, r, "Department updated.")
	http.Redirect(w, r, h.basePath(org)+"/"+dept.ID.Hex(), http.StatusSeeOther)
}

// syncUserAssignments reconciles the users' department reference lists
// after a department's membership changed. The department member list is
// the source of truth; the user-side list feeds permission derivation.
func (h *Handler) syncUserAssignments(ctx context.Context, deptID primitive.ObjectID, oldMembers, newMembers []primitive.ObjectID) {
	newSet := make(map[primitive.ObjectID]bool, len(newMembers))
	for _, id := range newMembers {
		newSet[id] = true
	}
	for _, id := range oldMembers {
		if !newSet[id] {
			if err := h.Users.RemoveDepartment(ctx, id, deptID); err != nil {
				h.Log.Warn("remove department assignment failed",
					zap.Error(err), zap.String("dept_id", deptID.Hex()), zap.String("user_id", id.Hex()))
			}
		}
	}
	oldSet := make(map[primitive.ObjectID]bool, len(oldMembers))
	for _, id := range oldMembers {
		oldSet[id] = true
	}
	for _, id := range newMembers {
		if !oldSet[id] {
			if err := h.Users.AddDepartment(ctx, id, deptID); err != nil {
				h.Log.Warn("add department assignment failed",
					zap.Error(err), zap.String("dept_id", deptID.Hex()), zap.String("user_id", id.Hex()))
			}
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Shared form parsing                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type deptInput struct {
	name        string
	description string
	managerID   primitive.ObjectID
	memberIDs   []primitive.ObjectID
	budgetLimit *int64
}

// parseForm validates the submitted department form. On a validation
// failure it renders the form with the error and returns nil; the second
// return is a closure for the caller's own error cases.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, org models.Organization, deptID string, isEdit bool) (*deptInput, func(string)) {
	ctx, cancel := shortCtx(r)
	defer cancel()

	name := strings.TrimSpace(r.FormValue("name"))
	description := htmlsanitize.Plain(r.FormValue("description"))
	managerHex := r.FormValue("manager_id")
	memberHexes := r.Form["member_ids"]
	budgetStr := strings.TrimSpace(r.FormValue("budget_limit"))

	renderErr := func(msg string) {
		options, err := h.memberOptions(ctx, org)
		if err != nil {
			h.Log.Warn("load member options", zap.Error(err))
		}
		memberSet := make(map[string]bool, len(memberHexes))
		for _, id := range memberHexes {
			memberSet[id] = true
		}
		data := formData{
			Org:         org,
			DeptID:      deptID,
			Name:        name,
			Description: description,
			ManagerID:   managerHex,
			MemberIDs:   memberSet,
			BudgetLimit: budgetStr,
			Options:     options,
			IsEdit:      isEdit,
		}
		title := "New Department"
		if isEdit {
			title = "Edit Department"
		}
		formutil.SetBase(&data.Base, r, title, h.basePath(org))
		data.SetError(msg)
		templates.Render(w, r, "department_form", data)
	}

	if name == "" {
		renderErr("Please enter a department name.")
		return nil, nil
	}

	// Organization membership is the universe for both the manager and
	// the member picks.
	orgMembers := make(map[string]bool, len(org.MemberIDs))
	for _, id := range org.MemberIDs {
		orgMembers[id.Hex()] = true
	}

	var managerID primitive.ObjectID
	if managerHex != "" {
		if !orgMembers[managerHex] {
			renderErr("The chosen manager is not a member of this organization.")
			return nil, nil
		}
		managerID, _ = primitive.ObjectIDFromHex(managerHex)
	}

	memberIDs := make([]primitive.ObjectID, 0, len(memberHexes))
	for _, hex := range memberHexes {
		if !orgMembers[hex] {
			renderErr("A chosen member is not part of this organization.")
			return nil, nil
		}
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			renderErr("Invalid member selection.")
			return nil, nil
		}
		memberIDs = append(memberIDs, id)
	}

	var budgetLimit *int64
	if budgetStr != "" {
		n, err := strconv.ParseInt(budgetStr, 10, 64)
		if err != nil || n < 0 {
			renderErr("Budget limit must be a non-negative whole number.")
			return nil, nil
		}
		budgetLimit = &n
	}

	return &deptInput{
		name:        name,
		description: description,
		managerID:   managerID,
		memberIDs:   memberIDs,
		budgetLimit: budgetLimit,
	}, renderErr
}
