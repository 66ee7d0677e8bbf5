package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SetupIndexes creates the indexes the query endpoints depend on. Safe to
// run on every startup; index creation is idempotent.
func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	usersCollection := db.Collection("users")
	activitiesCollection := db.Collection("activities")
	visitsCollection := db.Collection("visittimes")
	configsCollection := db.Collection("activityconfigs")

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName("username_unique").
				SetUnique(true),
		},
	}

	activityIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("user_activity_date"),
		},
		{
			Keys: bson.D{
				{Key: "action", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("action_activity_date"),
		},
		{
			Keys: bson.D{
				{Key: "path", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("path_activity_date"),
		},
	}

	visitIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "page", Value: 1},
				{Key: "end_time", Value: 1},
			},
			Options: options.Index().SetName("user_page_open_visit"),
		},
	}

	configIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("config_owner_unique").
				SetUnique(true),
		},
	}

	if _, err := usersCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}
	if _, err := activitiesCollection.Indexes().CreateMany(ctx, activityIndexes); err != nil {
		return fmt.Errorf("failed to create activities indexes: %w", err)
	}
	if _, err := visitsCollection.Indexes().CreateMany(ctx, visitIndexes); err != nil {
		return fmt.Errorf("failed to create visittimes indexes: %w", err)
	}
	if _, err := configsCollection.Indexes().CreateMany(ctx, configIndexes); err != nil {
		return fmt.Errorf("failed to create activityconfigs indexes: %w", err)
	}

	log.Println("Successfully created all indexes")
	return nil
}
