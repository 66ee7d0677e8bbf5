package repository

import (
	"context"
	"testing"

	"main/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserRepoUpsertOnLogin(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns the post-upsert document", func(mt *mtest.T) {
		repo := &UserRepo{MongoCollection: mt.Coll}

		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "username", Value: "193-15-1036"},
				{Key: "studentId", Value: "193-15-1036"},
				{Key: "name", Value: "Nadia Islam"},
				{Key: "isActive", Value: true},
				{Key: "deviceInfo", Value: bson.A{bson.D{
					{Key: "deviceName", Value: "Chrome on Linux"},
				}}},
			}},
		})

		user, err := repo.UpsertOnLogin(context.Background(), &model.LoginUpsert{
			Username:  "193-15-1036",
			StudentID: "193-15-1036",
			Name:      "Nadia Islam",
			Roles:     []string{"student"},
			Device:    model.DeviceInfo{DeviceName: "Chrome on Linux"},
		})
		if err != nil {
			t.Fatalf("UpsertOnLogin failed: %v", err)
		}
		if user.Username != "193-15-1036" || user.Name != "Nadia Islam" {
			t.Errorf("decoded user: got %+v", user)
		}
		if !user.IsActive {
			t.Error("expected the returned document to be active")
		}
		if len(user.DeviceInfo) != 1 || user.DeviceInfo[0].DeviceName != "Chrome on Linux" {
			t.Errorf("devices: got %v", user.DeviceInfo)
		}
	})

	mt.Run("requires a username", func(mt *mtest.T) {
		repo := &UserRepo{MongoCollection: mt.Coll}

		if _, err := repo.UpsertOnLogin(context.Background(), &model.LoginUpsert{}); err == nil {
			t.Error("expected an error for a missing username")
		}
	})

	mt.Run("wraps the driver error", func(mt *mtest.T) {
		repo := &UserRepo{MongoCollection: mt.Coll}

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
		}))

		if _, err := repo.UpsertOnLogin(context.Background(), &model.LoginUpsert{Username: "u1"}); err == nil {
			t.Error("expected the command error to surface")
		}
	})
}

func TestUserRepoFindByUsername(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := &UserRepo{MongoCollection: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "username", Value: "193-15-1036"},
			{Key: "email", Value: "nadia@diu.edu.bd"},
		}))

		user, err := repo.FindByUsername(context.Background(), "193-15-1036")
		if err != nil {
			t.Fatalf("FindByUsername failed: %v", err)
		}
		if user == nil || user.Email != "nadia@diu.edu.bd" {
			t.Errorf("user: got %+v", user)
		}
	})

	mt.Run("absent means nil, nil", func(mt *mtest.T) {
		repo := &UserRepo{MongoCollection: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		user, err := repo.FindByUsername(context.Background(), "ghost")
		if err != nil {
			t.Fatalf("FindByUsername failed: %v", err)
		}
		if user != nil {
			t.Errorf("expected nil for an unknown user, got %+v", user)
		}
	})
}

func TestUserRepoUpdatePassword(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reports modified count", func(mt *mtest.T) {
		repo := &UserRepo{MongoCollection: mt.Coll}

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		modified, err := repo.UpdatePassword(context.Background(), "u1", "salt$hash")
		if err != nil {
			t.Fatalf("UpdatePassword failed: %v", err)
		}
		if modified != 1 {
			t.Errorf("modified: got %d, want 1", modified)
		}
	})

	mt.Run("rejects an empty hash", func(mt *mtest.T) {
		repo := &UserRepo{MongoCollection: mt.Coll}

		if _, err := repo.UpdatePassword(context.Background(), "u1", ""); err == nil {
			t.Error("expected an error for an empty hash")
		}
	})
}
