// internal/app/store/departments/departmentstore.go
package departmentstore

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fiscora/fiscora/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("departments")}
}

// Create inserts a new department within its organization.
func (s *Store) Create(ctx context.Context, d models.Department) (models.Department, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.NameCI = text.Fold(d.Name)
	if d.MemberIDs == nil {
		d.MemberIDs = []primitive.ObjectID{}
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Department{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Department, error) {
	var d models.Department
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Department{}, err
	}
	return d, nil
}

// ListByOrganization returns an organization's departments sorted by name.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Department, error) {
	return s.find(ctx, bson.M{"organization_id": orgID})
}

// ListByOrganizationMember returns the departments within an organization
// whose member list includes userID.
func (s *Store) ListByOrganizationMember(ctx context.Context, orgID, userID primitive.ObjectID) ([]models.Department, error) {
	return s.find(ctx, bson.M{"organization_id": orgID, "member_ids": userID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Department, error) {
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var depts []models.Department
	if err := cur.All(ctx, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

// Update modifies a department's mutable fields. The owning organization
// is fixed at creation and never changes.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, d models.Department) error {
	set := bson.M{
		"name":         d.Name,
		"name_ci":      text.Fold(d.Name),
		"description":  d.Description,
		"manager_id":   d.ManagerID,
		"budget_limit": d.BudgetLimit,
		"updated_at":   time.Now().UTC(),
	}
	if d.MemberIDs != nil {
		set["member_ids"] = d.MemberIDs
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// RemoveMemberEverywhere pulls a user out of every department member
// list, used when a user account is deleted.
func (s *Store) RemoveMemberEverywhere(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"member_ids": userID}, bson.M{
		"$pull": bson.M{"member_ids": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// CountByOrganization returns how many departments an organization has.
func (s *Store) CountByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"organization_id": orgID})
}

// Delete removes a department by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
