// internal/app/system/orgutil/counts.go
package orgutil

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fiscora/fiscora/internal/domain/models"
)

// Aggregator is a minimal interface satisfied by *mongo.Database.
// It allows unit-testing aggregation helpers with a fake.
type Aggregator interface {
	Collection(name string, opts ...*options.CollectionOptions) *mongo.Collection
}

// Counts summarizes an organization for list and detail views.
type Counts struct {
	Members     int64
	Admins      int64
	Departments int64
}

// AggregateCountByField computes counts grouped by a field.
//
//	coll     – collection name (e.g. "departments")
//	match    – base match filter (e.g. {"organization_id": {"$in": ids}})
//	groupKey – field to group on (e.g. "organization_id")
//
// Returns a map keyed by ObjectID to count.
func AggregateCountByField(
	ctx context.Context,
	db Aggregator,
	coll string,
	match bson.M,
	groupKey string,
) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + groupKey},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	return runCountPipeline(ctx, db.Collection(coll), pipeline)
}

// AggregateCountByArrayField is the variant for array-valued group keys:
// each document is unwound over the field so a user assigned to three
// organizations counts once toward each.
func AggregateCountByArrayField(
	ctx context.Context,
	db Aggregator,
	coll string,
	match bson.M,
	groupKey string,
) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$unwind", Value: "$" + groupKey}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + groupKey},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	return runCountPipeline(ctx, db.Collection(coll), pipeline)
}

func runCountPipeline(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) (map[primitive.ObjectID]int64, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]int64)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// CountsForOrganizations computes member, admin, and department counts
// for the given organizations in three aggregation passes. Organizations
// with no matching documents appear in the result with zero counts.
func CountsForOrganizations(ctx context.Context, db Aggregator, orgIDs []primitive.ObjectID) (map[primitive.ObjectID]Counts, error) {
	out := make(map[primitive.ObjectID]Counts, len(orgIDs))
	for _, id := range orgIDs {
		out[id] = Counts{}
	}
	if len(orgIDs) == 0 {
		return out, nil
	}

	in := bson.M{"$in": orgIDs}

	members, err := AggregateCountByArrayField(ctx, db, "users",
		bson.M{"organization_ids": in}, "organization_ids")
	if err != nil {
		return nil, err
	}
	admins, err := AggregateCountByArrayField(ctx, db, "users",
		bson.M{"role": models.RoleOrgAdmin, "organization_ids": in}, "organization_ids")
	if err != nil {
		return nil, err
	}
	depts, err := AggregateCountByField(ctx, db, "departments",
		bson.M{"organization_id": in}, "organization_id")
	if err != nil {
		return nil, err
	}

	for _, id := range orgIDs {
		out[id] = Counts{
			Members:     members[id],
			Admins:      admins[id],
			Departments: depts[id],
		}
	}
	return out, nil
}
