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

type ActivityRepo struct {
	MongoCollection *mongo.Collection
}

func GetActivityRepo(client *mongo.Client) *ActivityRepo {
	dbName := utils.GetEnvAsString("MONGO_DB", "student_portal")
	collectionName := utils.GetEnvAsString("ACTIVITIES_COLLECTION", "activities")
	return &ActivityRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// Insert appends one audit event. Activities are never mutated or deleted.
func (r *ActivityRepo) Insert(ctx context.Context, activity *model.Activity) error {
	timer := utils.TrackDBOperation("insert", "activities")
	defer timer.ObserveDuration()

	if activity == nil {
		utils.TrackError("database", "nil_activity")
		return fmt.Errorf("activity cannot be nil")
	}
	if !activity.Action.Valid() {
		utils.TrackError("database", "invalid_action")
		return fmt.Errorf("unknown action %q", activity.Action)
	}

	if _, err := r.MongoCollection.InsertOne(ctx, activity); err != nil {
		utils.TrackError("database", "activity_insert_failed")
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	return nil
}

// RecentLogins returns login events, newest first, optionally filtered by
// user and status.
func (r *ActivityRepo) RecentLogins(ctx context.Context, userID, status string, limit int64) ([]model.Activity, error) {
	timer := utils.TrackDBOperation("find", "activities")
	defer timer.ObserveDuration()

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	filter := bson.M{"action": model.ActionLogin}
	if userID != "" {
		filter["user_id"] = userID
	}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.TrackError("database", "login_query_failed")
		return nil, fmt.Errorf("failed to query login activity: %w", err)
	}
	defer cursor.Close(ctx)

	var activities []model.Activity
	if err := cursor.All(ctx, &activities); err != nil {
		utils.TrackError("database", "login_decode_failed")
		return nil, fmt.Errorf("failed to decode login activity: %w", err)
	}

	return activities, nil
}

// bucket formats for $dateToString, keyed by groupBy.
var summaryFormats = map[string]string{
	"day":   "%Y-%m-%d",
	"week":  "%G-W%V",
	"month": "%Y-%m",
}

// Summary aggregates event counts per (date bucket, action) between start
// and end, inclusive.
func (r *ActivityRepo) Summary(ctx context.Context, start, end time.Time, groupBy string) ([]model.SummaryBucket, error) {
	timer := utils.TrackDBOperation("aggregate", "activities")
	defer timer.ObserveDuration()

	format, ok := summaryFormats[groupBy]
	if !ok {
		return nil, fmt.Errorf("unsupported groupBy %q", groupBy)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"timestamp": bson.M{"$gte": start, "$lte": end},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"date": bson.M{"$dateToString": bson.M{
					"format": format,
					"date":   "$timestamp",
				}},
				"action": "$action",
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":    0,
			"date":   "$_id.date",
			"action": "$_id.action",
			"count":  1,
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "date", Value: 1},
			{Key: "action", Value: 1},
		}}},
	}

	cursor, err := r.MongoCollection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.TrackError("database", "summary_aggregation_failed")
		return nil, fmt.Errorf("failed to aggregate activity summary: %w", err)
	}
	defer cursor.Close(ctx)

	var buckets []model.SummaryBucket
	if err := cursor.All(ctx, &buckets); err != nil {
		utils.TrackError("database", "summary_decode_failed")
		return nil, fmt.Errorf("failed to decode activity summary: %w", err)
	}

	return buckets, nil
}
