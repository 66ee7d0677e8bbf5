package repository

import (
	"context"
	"fmt"
	"time"

	"main/model"
	"main/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VisitTimeRepo struct {
	MongoCollection *mongo.Collection
}

func GetVisitTimeRepo(client *mongo.Client) *VisitTimeRepo {
	dbName := utils.GetEnvAsString("MONGO_DB", "student_portal")
	collectionName := utils.GetEnvAsString("VISIT_TIMES_COLLECTION", "visittimes")
	return &VisitTimeRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// TouchOpenVisit keeps the invariant of at most one open record per
// (user, page): the upsert matches the open record if present and inserts
// a fresh one with start_time otherwise, atomically.
func (r *VisitTimeRepo) TouchOpenVisit(ctx context.Context, userID, page, device string) error {
	timer := utils.TrackDBOperation("upsert", "visittimes")
	defer timer.ObserveDuration()

	if userID == "" || page == "" {
		utils.TrackError("database", "invalid_visit_key")
		return fmt.Errorf("userID and page are required")
	}

	filter := bson.M{
		"user_id":  userID,
		"page":     page,
		"end_time": nil,
	}
	update := bson.M{
		"$set": bson.M{"device_info": device},
		"$setOnInsert": bson.M{
			"user_id":     userID,
			"page":        page,
			"start_time":  time.Now(),
			"end_time":    nil,
			"duration_ms": int64(0),
		},
	}

	_, err := r.MongoCollection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		utils.TrackError("database", "visit_touch_failed")
		return fmt.Errorf("failed to touch visit %s/%s: %w", userID, page, err)
	}

	return nil
}

// CloseOpenVisits ends every open visit for a user, computing each
// duration server-side from the stored start_time. The pipeline update
// keeps close-and-compute atomic per document.
func (r *VisitTimeRepo) CloseOpenVisits(ctx context.Context, userID string) (int64, error) {
	timer := utils.TrackDBOperation("update", "visittimes")
	defer timer.ObserveDuration()

	if userID == "" {
		utils.TrackError("database", "empty_user_id")
		return 0, fmt.Errorf("userID cannot be empty")
	}

	now := time.Now()
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"end_time":    now,
			"duration_ms": bson.M{"$subtract": bson.A{now, "$start_time"}},
		}}},
	}

	result, err := r.MongoCollection.UpdateMany(ctx, bson.M{"user_id": userID, "end_time": nil}, pipeline)
	if err != nil {
		utils.TrackError("database", "visit_close_failed")
		return 0, fmt.Errorf("failed to close visits for %s: %w", userID, err)
	}

	return result.ModifiedCount, nil
}

// OpenVisit returns the currently open record for a (user, page) pair, or
// nil when none is open.
func (r *VisitTimeRepo) OpenVisit(ctx context.Context, userID, page string) (*model.VisitTime, error) {
	timer := utils.TrackDBOperation("find", "visittimes")
	defer timer.ObserveDuration()

	var visit model.VisitTime
	err := r.MongoCollection.FindOne(ctx, bson.M{"user_id": userID, "page": page, "end_time": nil}).Decode(&visit)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "visit_lookup_error")
		return nil, fmt.Errorf("failed to find open visit %s/%s: %w", userID, page, err)
	}

	return &visit, nil
}
