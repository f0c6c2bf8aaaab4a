package organizationstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	organizationstore "github.com/fiscora/fiscora/internal/app/store/organizations"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/fiscora/fiscora/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Organization{
		Name:     "Hope Foundation",
		Country:  "RW",
		Currency: "RWF",
	}, creator)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if !created.HasAdmin(creator) {
		t.Error("creator must be in the admin list")
	}
	if len(created.MemberIDs) != 1 || created.MemberIDs[0] != creator {
		t.Errorf("MemberIDs = %v, want creator only", created.MemberIDs)
	}
	if created.Settings.FiscalYearStart != "01-01" {
		t.Errorf("Settings = %+v, want defaults", created.Settings)
	}
	if created.Subscription.Plan != "free" || created.Subscription.Status != "active" {
		t.Errorf("Subscription = %+v, want free/active", created.Subscription)
	}
	if created.CreatedBy != creator {
		t.Errorf("CreatedBy = %s, want %s", created.CreatedBy.Hex(), creator.Hex())
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := db.Collection("organizations").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		t.Fatalf("ensuring unique name index: %v", err)
	}

	store := organizationstore.New(db)
	creator := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.Organization{Name: "Duplicate Org"}, creator); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	// Folded comparison: different case still collides.
	if _, err := store.Create(ctx, models.Organization{Name: "DUPLICATE ORG"}, creator); err != organizationstore.ErrDuplicateOrganization {
		t.Errorf("second Create err = %v, want ErrDuplicateOrganization", err)
	}
}

func TestStore_AdminAndMemberLists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	creator := primitive.NewObjectID()
	other := primitive.NewObjectID()
	org, err := store.Create(ctx, models.Organization{Name: "List Org"}, creator)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.AddAdmin(ctx, org.ID, other); err != nil {
		t.Fatalf("AddAdmin failed: %v", err)
	}
	got, err := store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.HasAdmin(other) {
		t.Error("AddAdmin did not add to admin list")
	}
	if len(got.MemberIDs) != 2 {
		t.Errorf("MemberIDs = %v, admins must also be members", got.MemberIDs)
	}

	// Demoting keeps membership; an organization may end up with no admins.
	if err := store.RemoveAdmin(ctx, org.ID, other); err != nil {
		t.Fatalf("RemoveAdmin failed: %v", err)
	}
	if err := store.RemoveAdmin(ctx, org.ID, creator); err != nil {
		t.Fatalf("RemoveAdmin failed: %v", err)
	}
	got, err = store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.AdminIDs) != 0 {
		t.Errorf("AdminIDs = %v, want empty", got.AdminIDs)
	}
	if len(got.MemberIDs) != 2 {
		t.Errorf("MemberIDs = %v, demote must not remove membership", got.MemberIDs)
	}

	if err := store.RemoveMember(ctx, org.ID, other); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	got, err = store.GetByID(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.MemberIDs) != 1 {
		t.Errorf("MemberIDs = %v after RemoveMember", got.MemberIDs)
	}
}

func TestStore_Delete_LeavesDepartments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Doomed Org")
	fx.CreateDepartment(ctx, "Finance", org.ID)

	n, err := store.Delete(ctx, org.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d documents, want 1", n)
	}

	// No cascade: the department document stays behind.
	count, err := db.Collection("departments").CountDocuments(ctx, bson.M{"organization_id": org.ID})
	if err != nil {
		t.Fatalf("counting departments: %v", err)
	}
	if count != 1 {
		t.Errorf("department count after delete = %d, want 1", count)
	}
}

func TestStore_NameExistsForOther(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Kept Name")

	// Own record does not count as a collision.
	exists, err := store.NameExistsForOther(ctx, org.NameCI, org.ID)
	if err != nil {
		t.Fatalf("NameExistsForOther failed: %v", err)
	}
	if exists {
		t.Error("own record reported as duplicate")
	}

	exists, err = store.NameExistsForOther(ctx, org.NameCI, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("NameExistsForOther failed: %v", err)
	}
	if !exists {
		t.Error("expected collision for other record")
	}
}

func TestStore_NamesByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := organizationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateOrganization(ctx, "Alpha")
	b := fx.CreateOrganization(ctx, "Beta")
	missing := primitive.NewObjectID()

	names, err := store.NamesByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, missing})
	if err != nil {
		t.Fatalf("NamesByIDs failed: %v", err)
	}
	if names[a.ID] != "Alpha" || names[b.ID] != "Beta" {
		t.Errorf("names = %v", names)
	}
	if _, ok := names[missing]; ok {
		t.Error("missing ID should be absent from the map")
	}
}
