// internal/app/store/users/fetcher.go
package userstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fiscora/fiscora/internal/app/system/auth"
	"github.com/fiscora/fiscora/internal/app/system/status"
	"github.com/fiscora/fiscora/internal/app/system/timeouts"
	"github.com/fiscora/fiscora/internal/domain/models"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each
// request, so role and membership changes take effect without re-login.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// SessionUser retrieves a user by ID. A missing account, a disabled
// account, or one without a recognized role returns (nil, nil), which
// signs the session out; only infrastructure failures surface as errors.
func (f *Fetcher) SessionUser(ctx context.Context, userID string) (*auth.SessionUser, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":              1,
		"full_name":        1,
		"email":            1,
		"role":             1,
		"status":           1,
		"organization_ids": 1,
		"department_ids":   1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}

	if u.Status == status.Disabled {
		return nil, nil
	}
	// A document without a recognized role (legacy or externally
	// written) cannot be gated correctly, so the session is treated
	// as unauthenticated rather than guessed at.
	if !models.ValidRole(u.Role) {
		return nil, nil
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
	for _, id := range u.OrganizationIDs {
		su.OrganizationIDs = append(su.OrganizationIDs, id.Hex())
	}
	for _, id := range u.DepartmentIDs {
		su.DepartmentIDs = append(su.DepartmentIDs, id.Hex())
	}
	return su, nil
}
