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

type UserRepo struct {
	MongoCollection *mongo.Collection
}

func GetUserRepo(client *mongo.Client) *UserRepo {
	dbName := utils.GetEnvAsString("MONGO_DB", "student_portal")
	collectionName := utils.GetEnvAsString("USERS_COLLECTION", "users")
	return &UserRepo{
		MongoCollection: client.Database(dbName).Collection(collectionName),
	}
}

// UpsertOnLogin is the single atomic write the login pipeline performs on
// the users collection. Keyed by username with upsert semantics so two
// concurrent first logins for the same user cannot both insert; the device
// entry is set-added so repeated identical devices are not duplicated.
func (r *UserRepo) UpsertOnLogin(ctx context.Context, login *model.LoginUpsert) (*model.User, error) {
	timer := utils.TrackDBOperation("upsert", "users")
	defer timer.ObserveDuration()

	if login.Username == "" {
		utils.TrackError("database", "missing_username")
		return nil, fmt.Errorf("username is required")
	}

	now := time.Now()

	setFields := bson.M{
		"name":      login.Name,
		"roles":     login.Roles,
		"lastLogin": now,
		"isActive":  true,
	}
	if login.AccessToken != "" {
		setFields["accessToken"] = login.AccessToken
	}

	insertFields := bson.M{
		"username":            login.Username,
		"studentId":           login.StudentID,
		"email":               login.Email,
		"accountLocked":       false,
		"failedLoginAttempts": 0,
		"createdAt":           now,
	}
	if login.PasswordHash != "" {
		insertFields["password"] = login.PasswordHash
	}

	update := bson.M{
		"$set":         setFields,
		"$setOnInsert": insertFields,
		"$addToSet":    bson.M{"deviceInfo": login.Device},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user model.User
	err := r.MongoCollection.FindOneAndUpdate(ctx, bson.M{"username": login.Username}, update, opts).Decode(&user)
	if err != nil {
		utils.TrackError("database", "user_upsert_failed")
		return nil, fmt.Errorf("failed to upsert user %s: %w", login.Username, err)
	}

	return &user, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user model.User
	err := r.MongoCollection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "user_lookup_error")
		return nil, fmt.Errorf("failed to find user %s: %w", username, err)
	}

	return &user, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, username, hashedPassword string) (int64, error) {
	timer := utils.TrackDBOperation("update", "users")
	defer timer.ObserveDuration()

	if hashedPassword == "" {
		utils.TrackError("database", "invalid_password_hash")
		return 0, fmt.Errorf("password hashing error")
	}

	update := bson.M{
		"$set": bson.M{
			"password":           hashedPassword,
			"lastPasswordChange": time.Now(),
		},
	}

	result, err := r.MongoCollection.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		utils.TrackError("database", "password_update_failed")
		return 0, fmt.Errorf("failed to update password: %w", err)
	}

	return result.ModifiedCount, nil
}
