package departmentstore_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	departmentstore "github.com/fiscora/fiscora/internal/app/store/departments"
	"github.com/fiscora/fiscora/internal/domain/models"
	"github.com/fiscora/fiscora/internal/testutil"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := departmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID()
	limit := int64(500000)
	created, err := store.Create(ctx, models.Department{
		Name:           "Finance",
		Description:    "Budgeting and accounting",
		OrganizationID: orgID,
		BudgetLimit:    &limit,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}
	if created.MemberIDs == nil {
		t.Error("MemberIDs must be non-nil")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.OrganizationID != orgID {
		t.Errorf("OrganizationID = %s, want %s", got.OrganizationID.Hex(), orgID.Hex())
	}
	if got.BudgetLimit == nil || *got.BudgetLimit != limit {
		t.Errorf("BudgetLimit = %v, want %d", got.BudgetLimit, limit)
	}
}

func TestStore_ListByOrganizationMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := departmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	fx.CreateDepartment(ctx, "Finance", orgID, userID)
	fx.CreateDepartment(ctx, "Programs", orgID)
	fx.CreateDepartment(ctx, "Other Org Dept", primitive.NewObjectID(), userID)

	all, err := store.ListByOrganization(ctx, orgID)
	if err != nil {
		t.Fatalf("ListByOrganization failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListByOrganization returned %d, want 2", len(all))
	}

	mine, err := store.ListByOrganizationMember(ctx, orgID, userID)
	if err != nil {
		t.Fatalf("ListByOrganizationMember failed: %v", err)
	}
	if len(mine) != 1 || mine[0].Name != "Finance" {
		t.Errorf("ListByOrganizationMember = %v, want only Finance", mine)
	}
}

func TestStore_Update_KeepsOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := departmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.Department{Name: "Before", OrganizationID: orgID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	manager := primitive.NewObjectID()
	err = store.Update(ctx, created.ID, models.Department{
		Name:           "After",
		Description:    "renamed",
		OrganizationID: primitive.NewObjectID(), // must be ignored
		ManagerID:      manager,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "After" || got.ManagerID != manager {
		t.Errorf("got %+v", got)
	}
	if got.OrganizationID != orgID {
		t.Errorf("OrganizationID changed to %s, must stay %s", got.OrganizationID.Hex(), orgID.Hex())
	}
}

func TestStore_RemoveMemberEverywhere(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := departmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	keep := primitive.NewObjectID()
	d1 := fx.CreateDepartment(ctx, "One", primitive.NewObjectID(), userID, keep)
	d2 := fx.CreateDepartment(ctx, "Two", primitive.NewObjectID(), userID)

	if err := store.RemoveMemberEverywhere(ctx, userID); err != nil {
		t.Fatalf("RemoveMemberEverywhere failed: %v", err)
	}

	for _, id := range []primitive.ObjectID{d1.ID, d2.ID} {
		got, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.HasMember(userID) {
			t.Errorf("department %s still lists the removed user", got.Name)
		}
	}
	got, err := store.GetByID(ctx, d1.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.HasMember(keep) {
		t.Error("unrelated member was removed")
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := departmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Department{Name: "Doomed", OrganizationID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	n, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}

	if _, err := store.GetByID(ctx, created.ID); err != mongo.ErrNoDocuments {
		t.Errorf("GetByID after delete err = %v, want ErrNoDocuments", err)
	}
}
