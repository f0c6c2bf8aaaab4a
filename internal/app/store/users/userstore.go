// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fiscora/fiscora/internal/app/system/inputval"
	"github.com/fiscora/fiscora/internal/app/system/normalize"
	"github.com/fiscora/fiscora/internal/app/system/status"
	"github.com/fiscora/fiscora/internal/domain/models"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "app_admin"|"org_admin"|"user"`)
	errBadStatus      = errors.New(`status must be "active"|"disabled"`)
	errBadAuthMethod  = errors.New(`auth method must be "password"|"google"`)
)

// Create inserts a new user after normalizing & validating fields.
// Membership arrays are stored non-nil so reads never see null.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	if u.Status == "" {
		u.Status = status.Active
	}
	if u.AuthMethod == "" {
		u.AuthMethod = "password"
	}

	if !models.ValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}
	if !inputval.IsValidAuthMethod(u.AuthMethod) {
		return models.User{}, errBadAuthMethod
	}

	if u.OrganizationIDs == nil {
		u.OrganizationIDs = []primitive.ObjectID{}
	}
	if u.DepartmentIDs == nil {
		u.DepartmentIDs = []primitive.ObjectID{}
	}
	if u.Preferences == (models.Preferences{}) {
		u.Preferences = models.DefaultPreferences()
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Find returns users matching the given filter with optional find options.
// The caller builds the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// CountAll returns the total number of user accounts. The registration
// flow uses it to detect the first account, which becomes app_admin.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountByOrganization returns how many users still reference an
// organization. Used to report dangling references when an organization
// is deleted without cascade.
func (s *Store) CountByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"organization_ids": orgID})
}

// Update holds the administrative fields that can be changed on a user.
type Update struct {
	FullName        string
	Email           string
	Role            string
	Status          string
	OrganizationIDs []primitive.ObjectID
	DepartmentIDs   []primitive.ObjectID
}

// Apply updates a user's administrative fields.
// Returns ErrDuplicateEmail if the email already exists for another user.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, upd Update) error {
	if !models.ValidRole(upd.Role) {
		return errBadRole
	}
	if !status.IsValid(upd.Status) {
		return errBadStatus
	}
	if upd.OrganizationIDs == nil {
		upd.OrganizationIDs = []primitive.ObjectID{}
	}
	if upd.DepartmentIDs == nil {
		upd.DepartmentIDs = []primitive.ObjectID{}
	}

	set := bson.M{
		"full_name":        normalize.Name(upd.FullName),
		"full_name_ci":     text.Fold(normalize.Name(upd.FullName)),
		"email":            normalize.Email(upd.Email),
		"role":             upd.Role,
		"status":           upd.Status,
		"organization_ids": upd.OrganizationIDs,
		"department_ids":   upd.DepartmentIDs,
		"updated_at":       time.Now().UTC(),
	}

	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdateProfile changes the self-service fields: display name and
// preferences. Role and memberships are not touched here.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName string, prefs models.Preferences) error {
	name := normalize.Name(fullName)
	set := bson.M{
		"full_name":    name,
		"full_name_ci": text.Fold(name),
		"preferences":  prefs,
		"updated_at":   time.Now().UTC(),
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetPassword stores a new bcrypt password hash.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// SetLastLogin records a successful sign-in.
func (s *Store) SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login_at": at.UTC()}})
	return err
}

// AddOrganization adds an organization to a user's membership list.
func (s *Store) AddOrganization(ctx context.Context, id, orgID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"organization_ids": orgID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveOrganization removes an organization from a user's membership list.
func (s *Store) RemoveOrganization(ctx context.Context, id, orgID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"organization_ids": orgID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// AddDepartment adds a department to a user's assignment list.
func (s *Store) AddDepartment(ctx context.Context, id, deptID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"department_ids": deptID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveDepartment removes a department from a user's assignment list.
func (s *Store) RemoveDepartment(ctx context.Context, id, deptID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$pull": bson.M{"department_ids": deptID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// RemoveDepartmentEverywhere pulls a department out of every user's
// assignment list, used when a department is deleted.
func (s *Store) RemoveDepartmentEverywhere(ctx context.Context, deptID primitive.ObjectID) error {
	_, err := s.c.UpdateMany(ctx, bson.M{"department_ids": deptID}, bson.M{
		"$pull": bson.M{"department_ids": deptID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
