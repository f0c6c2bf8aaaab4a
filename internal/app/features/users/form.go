// internal/app/features/users/form.go
package users

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	userstore "github.com/fiscora/fiscora/internal/app/store/users"
	"github.com/fiscora/fiscora/internal/app/policy/userpolicy"
	"github.com/fiscora/fiscora/internal/app/system/formutil"
	"github.com/fiscora/fiscora/internal/app/system/inputval"
	"github.com/fiscora/fiscora/internal/app/system/status"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

/*─────────────────────────────────────────────────────────────────────────────*
| GET /users/new                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	roles := userpolicy.AssignableRoles(r)
	if roles == nil {
		h.ErrLog.LogBadRequest(w, r, "create user without permission", nil,
			"You do not have permission to create accounts.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs, err := h.assignableOrgs(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load assignable organizations", err, "Unable to load organizations.", "/users")
		return
	}

	data := formPageData{
		Role:     models.RoleUser,
		Status:   status.Active,
		Roles:    roles,
		Statuses: statuses,
		Orgs:     orgOptionsFor(orgs, nil),
	}
	formutil.SetBase(&data.Base, r, "New Account", "/users")
	templates.Render(w, r, "user_form", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /users                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/users")
		return
	}

	roles := userpolicy.AssignableRoles(r)
	if roles == nil {
		h.ErrLog.LogBadRequest(w, r, "create user without permission", nil,
			"You do not have permission to create accounts.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	in, renderErr, ok := h.parseForm(w, r, ctx, "", false)
	if !ok {
		return
	}

	if !inputval.IsValidPassword(in.password) {
		renderErr(fmt.Sprintf("Password must be at least %d characters.", inputval.MinPasswordLength))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.password), bcryptCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "hash password", err, "A server error occurred.", "/users")
		return
	}

	created, err := h.Users.Create(ctx, models.User{
		FullName:        in.fullName,
		Email:           in.email,
		PasswordHash:    string(hash),
		Role:            in.role,
		Status:          in.status,
		OrganizationIDs: in.orgIDs,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		renderErr("An account with that email already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create user", err, "Database error while creating account.", "/users")
		return
	}

	// Keep the organizations' member lists in sync with the account's
	// membership references.
	for _, orgID := range in.orgIDs {
		if err := h.Orgs.AddMember(ctx, orgID, created.ID); err != nil {
			h.Log.Warn("sync organization membership failed",
				zap.Error(err), zap.String("org_id", orgID.Hex()), zap.String("user_id", created.ID.Hex()))
		}
	}

	h.Flash.Success(w, r, "Account for "+created.FullName+" created.")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /users/{userID}/edit                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	target, ok := h.targetFromRoute(w, r, ctx)
	if !ok {
		return
	}

	orgs, err := h.assignableOrgs(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load assignable organizations", err, "Unable to load organizations.", "/users")
		return
	}

	data := formPageData{
		UserID:     target.ID.Hex(),
		FullName:   target.FullName,
		Email:      target.Email,
		Role:       target.Role,
		Status:     target.Status,
		AuthMethod: target.AuthMethod,
		Roles:      rolesForEdit(r, target),
		Statuses:   statuses,
		Orgs:       orgOptionsFor(orgs, target.OrganizationIDs),
		IsEdit:     true,
	}
	formutil.SetBase(&data.Base, r, "Edit Account", "/users")
	templates.Render(w, r, "user_form", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /users/{userID}/edit                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form submission.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	target, ok := h.targetFromRoute(w, r, ctx)
	if !ok {
		return
	}

	in, renderErr, ok := h.parseForm(w, r, ctx, target.ID.Hex(), true)
	if !ok {
		return
	}

	// Keeping the current role is always allowed; changing it needs
	// assignment standing for the new role.
	if in.role != target.Role && !userpolicy.CanAssignRole(r, in.role) {
		renderErr("You cannot assign that role.")
		return
	}

	// Department membership is managed on the department screens; carry
	// the existing references through the update untouched.
	err := h.Users.Apply(ctx, target.ID, userstore.Update{
		FullName:        in.fullName,
		Email:           in.email,
		Role:            in.role,
		Status:          in.status,
		OrganizationIDs: in.orgIDs,
		DepartmentIDs:   target.DepartmentIDs,
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		renderErr("An account with that email already exists.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update user", err, "Database error while saving account.", "/users")
		return
	}

	h.syncOrgMembership(ctx, target, in.orgIDs)

	h.Flash.Success(w, r, "Account updated.")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// syncOrgMembership reconciles the denormalized organization member
// lists after an account's membership set changed.
func (h *Handler) syncOrgMembership(ctx context.Context, target *models.User, newOrgIDs []primitive.ObjectID) {
	newSet := make(map[primitive.ObjectID]bool, len(newOrgIDs))
	for _, id := range newOrgIDs {
		newSet[id] = true
	}
	for _, id := range target.OrganizationIDs {
		if !newSet[id] {
			if err := h.Orgs.RemoveMember(ctx, id, target.ID); err != nil {
				h.Log.Warn("remove organization member failed",
					zap.Error(err), zap.String("org_id", id.Hex()), zap.String("user_id", target.ID.Hex()))
			}
		}
	}
	oldSet := make(map[primitive.ObjectID]bool, len(target.OrganizationIDs))
	for _, id := range target.OrganizationIDs {
		oldSet[id] = true
	}
	for _, id := range newOrgIDs {
		if !oldSet[id] {
			if err := h.Orgs.AddMember(ctx, id, target.ID); err != nil {
				h.Log.Warn("add organization member failed",
					zap.Error(err), zap.String("org_id", id.Hex()), zap.String("user_id", target.ID.Hex()))
			}
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Shared form parsing                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type accountInput struct {
	fullName string
	email    string
	password string
	role     string
	status   string
	orgIDs   []primitive.ObjectID
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request, ctx context.Context, userID string, isEdit bool) (*accountInput, func(string), bool) {
	fullName := strings.TrimSpace(r.FormValue("full_name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	role := r.FormValue("role")
	st := r.FormValue("status")
	orgHexes := r.Form["organization_ids"]

	renderErr := func(msg string) {
		orgs, err := h.assignableOrgs(ctx, r)
		if err != nil {
			h.Log.Warn("load assignable organizations", zap.Error(err))
		}
		selected := make([]primitive.ObjectID, 0, len(orgHexes))
		for _, hex := range orgHexes {
			if id, err := primitive.ObjectIDFromHex(hex); err == nil {
				selected = append(selected, id)
			}
		}
		data := formPageData{
			UserID:   userID,
			FullName: fullName,
			Email:    email,
			Role:     role,
			Status:   st,
			Roles:    userpolicy.AssignableRoles(r),
			Statuses: statuses,
			Orgs:     orgOptionsFor(orgs, selected),
			IsEdit:   isEdit,
		}
		title := "New Account"
		if isEdit {
			title = "Edit Account"
		}
		formutil.SetBase(&data.Base, r, title, "/users")
		data.SetError(msg)
		templates.Render(w, r, "user_form", data)
	}

	if fullName == "" {
		renderErr("Please enter the person's full name.")
		return nil, nil, false
	}
	if !inputval.IsValidEmail(email) {
		renderErr("Please enter a valid email address.")
		return nil, nil, false
	}
	if !models.ValidRole(role) {
		renderErr("Please choose a valid role.")
		return nil, nil, false
	}
	if !isEdit && !userpolicy.CanAssignRole(r, role) {
		renderErr("You cannot assign that role.")
		return nil, nil, false
	}
	if !status.IsValid(st) {
		renderErr("Please choose a valid status.")
		return nil, nil, false
	}

	// Organizations must come from the caller's assignable set.
	assignable, err := h.assignableOrgs(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load assignable organizations", err, "A server error occurred.", "/users")
		return nil, nil, false
	}
	allowed := make(map[string]primitive.ObjectID, len(assignable))
	for _, org := range assignable {
		allowed[org.ID.Hex()] = org.ID
	}

	orgIDs := make([]primitive.ObjectID, 0, len(orgHexes))
	for _, hex := range orgHexes {
		id, ok := allowed[hex]
		if !ok {
			renderErr("A chosen organization is not available to you.")
			return nil, nil, false
		}
		orgIDs = append(orgIDs, id)
	}

	return &accountInput{
		fullName: fullName,
		email:    email,
		password: password,
		role:     role,
		status:   st,
		orgIDs:   orgIDs,
	}, renderErr, true
}

func orgOptionsFor(orgs []models.Organization, selected []primitive.ObjectID) []orgOption {
	sel := make(map[primitive.ObjectID]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}
	opts := make([]orgOption, 0, len(orgs))
	for _, org := range orgs {
		opts = append(opts, orgOption{ID: org.ID.Hex(), Name: org.Name, Selected: sel[org.ID]})
	}
	return opts
}

// rolesForEdit always includes the target's current role so the form can
// render it even when the caller could not grant it fresh.
func rolesForEdit(r *http.Request, target *models.User) []string {
	roles := userpolicy.AssignableRoles(r)
	for _, role := range roles {
		if role == target.Role {
			return roles
		}
	}
	return append([]string{target.Role}, roles...)
}
