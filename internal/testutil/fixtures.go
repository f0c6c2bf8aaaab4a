package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fiscora/fiscora/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates a test organization with the given name and
// admins. Admins are also included in the member list.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string, adminIDs ...primitive.ObjectID) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		Country:      "RW",
		Currency:     "RWF",
		AdminIDs:     append([]primitive.ObjectID{}, adminIDs...),
		MemberIDs:    append([]primitive.ObjectID{}, adminIDs...),
		Settings:     models.DefaultOrganizationSettings(),
		Subscription: models.Subscription{Plan: "free", Status: "active"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateUser creates a test user with the given role and organization
// memberships.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, orgIDs ...primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:              primitive.NewObjectID(),
		FullName:        fullName,
		FullNameCI:      text.Fold(fullName),
		Email:           email,
		AuthMethod:      "password",
		Role:            role,
		Status:          "active",
		OrganizationIDs: append([]primitive.ObjectID{}, orgIDs...),
		DepartmentIDs:   []primitive.ObjectID{},
		Preferences:     models.DefaultPreferences(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAppAdmin creates a test application administrator.
func (f *Fixtures) CreateAppAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAppAdmin)
}

// CreateOrgAdmin creates a test organization administrator assigned to orgID.
func (f *Fixtures) CreateOrgAdmin(ctx context.Context, fullName, email string, orgID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleOrgAdmin, orgID)
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:              primitive.NewObjectID(),
		FullName:        fullName,
		FullNameCI:      text.Fold(fullName),
		Email:           email,
		AuthMethod:      "password",
		Role:            models.RoleUser,
		Status:          "disabled",
		OrganizationIDs: []primitive.ObjectID{},
		DepartmentIDs:   []primitive.ObjectID{},
		Preferences:     models.DefaultPreferences(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}
	return user
}

// CreateDepartment creates a test department in the given organization.
func (f *Fixtures) CreateDepartment(ctx context.Context, name string, orgID primitive.ObjectID, memberIDs ...primitive.ObjectID) models.Department {
	f.t.Helper()

	now := time.Now().UTC()
	dept := models.Department{
		ID:             primitive.NewObjectID(),
		Name:           name,
		NameCI:         text.Fold(name),
		Description:    "Test department description",
		OrganizationID: orgID,
		MemberIDs:      append([]primitive.ObjectID{}, memberIDs...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := f.db.Collection("departments").InsertOne(ctx, dept); err != nil {
		f.t.Fatalf("failed to create test department: %v", err)
	}
	return dept
}
