// Package scope computes which organizations the authenticated identity
// may operate in, persists the chosen one client-side, and gates the main
// application behind that choice.
//
// The service and gate are constructed in bootstrap and injected where
// needed; the reachable-destination logic is a pure function of state
// (see gate.go), with no timers or forced re-redirects.
package scope

import (
	"context"
	"errors"

	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// OrganizationSource is the slice of the organization store the service
// needs. GetByID returns mongo.ErrNoDocuments when the organization does
// not exist.
type OrganizationSource interface {
	All(ctx context.Context) ([]models.Organization, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
}

// DepartmentSource is the slice of the department store the service needs.
type DepartmentSource interface {
	ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Department, error)
	ListByOrganizationMember(ctx context.Context, orgID, userID primitive.ObjectID) ([]models.Department, error)
}

// Service computes the available-organizations list for an identity.
type Service struct {
	orgs  OrganizationSource
	depts DepartmentSource
	log   *zap.Logger
}

// NewService constructs a Service over the given sources.
func NewService(orgs OrganizationSource, depts DepartmentSource, logger *zap.Logger) *Service {
	return &Service{orgs: orgs, depts: depts, log: logger}
}

// Available computes the organizations u may operate in, each with the
// role that applies there and the departments visible to u.
//
//   - app_admin: every organization, role admin, full department list.
//   - org_admin: each assigned organization; role admin only where the
//     organization's admin set contains the user; full department list.
//   - user: each assigned organization; role member; only departments
//     whose member set contains the user.
//
// Assigned organizations that no longer exist are skipped silently (a
// dangling reference is not an error for the caller).
func (s *Service) Available(ctx context.Context, u *auth.SessionUser) ([]models.OrganizationSelection, error) {
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return nil, err
	}

	if u.Role == models.RoleAppAdmin {
		orgs, err := s.orgs.All(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]models.OrganizationSelection, 0, len(orgs))
		for _, org := range orgs {
			depts, err := s.depts.ListByOrganization(ctx, org.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, selection(org, models.SelectionRoleAdmin, depts))
		}
		return out, nil
	}

	out := make([]models.OrganizationSelection, 0, len(u.OrganizationIDs))
	for _, idHex := range u.OrganizationIDs {
		orgID, err := primitive.ObjectIDFromHex(idHex)
		if err != nil {
			s.log.Warn("skipping malformed organization id", zap.String("org_id", idHex), zap.String("user_id", u.ID))
			continue
		}

		org, err := s.orgs.GetByID(ctx, orgID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.log.Info("skipping unresolvable organization reference",
				zap.String("org_id", idHex), zap.String("user_id", u.ID))
			continue
		}
		if err != nil {
			return nil, err
		}

		role := models.SelectionRoleMember
		if u.Role == models.RoleOrgAdmin && org.HasAdmin(uid) {
			role = models.SelectionRoleAdmin
		}

		var depts []models.Department
		if u.Role == models.RoleOrgAdmin {
			depts, err = s.depts.ListByOrganization(ctx, orgID)
		} else {
			depts, err = s.depts.ListByOrganizationMember(ctx, orgID, uid)
		}
		if err != nil {
			return nil, err
		}

		out = append(out, selection(org, role, depts))
	}
	return out, nil
}

func selection(org models.Organization, role string, depts []models.Department) models.OrganizationSelection {
	refs := make([]models.DepartmentRef, 0, len(depts))
	for _, d := range depts {
		refs = append(refs, models.DepartmentRef{ID: d.ID.Hex(), Name: d.Name})
	}
	return models.OrganizationSelection{
		ID:          org.ID.Hex(),
		Name:        org.Name,
		Role:        role,
		Departments: refs,
	}
}
