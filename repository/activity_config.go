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

type ActivityConfigRepo struct {
	MongoCollection *mongo.Collection
}

func GetActivityConfigRepo(client *mongo.Client) *ActivityConfigRepo {
	dbName := utils.GetEnvAsString("MONGO_DB", "student_portal")
	collectionName := utils.GetEnvAsString("ACTIVITY_CONFIGS_COLLECTION", "activityconfigs")
	return &ActivityConfigRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// Get returns the user's saved config, or nil when none exists. Callers
// fall back to the all-enabled default on nil.
func (r *ActivityConfigRepo) Get(ctx context.Context, userID string) (*model.ActivityConfig, error) {
	timer := utils.TrackDBOperation("find", "activityconfigs")
	defer timer.ObserveDuration()

	var cfg model.ActivityConfig
	err := r.MongoCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "config_lookup_error")
		return nil, fmt.Errorf("failed to load activity config for %s: %w", userID, err)
	}

	return &cfg, nil
}

// Upsert writes the one-per-user config record.
func (r *ActivityConfigRepo) Upsert(ctx context.Context, cfg *model.ActivityConfig) error {
	timer := utils.TrackDBOperation("upsert", "activityconfigs")
	defer timer.ObserveDuration()

	if cfg == nil || cfg.UserID == "" {
		utils.TrackError("database", "invalid_config")
		return fmt.Errorf("config must have an owning user")
	}

	update := bson.M{
		"$set": bson.M{
			"enabled":    cfg.Enabled,
			"updated_at": time.Now(),
		},
		"$setOnInsert": bson.M{"user_id": cfg.UserID},
	}

	_, err := r.MongoCollection.UpdateOne(ctx, bson.M{"user_id": cfg.UserID}, update, options.Update().SetUpsert(true))
	if err != nil {
		utils.TrackError("database", "config_upsert_failed")
		return fmt.Errorf("failed to upsert activity config for %s: %w", cfg.UserID, err)
	}

	return nil
}
