package repository

import (
	"context"
	"testing"

	"main/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestActivityConfigRepoGet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes a saved config", func(mt *mtest.T) {
		repo := &ActivityConfigRepo{MongoCollection: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "user_id", Value: "193-15-1036"},
			{Key: "enabled", Value: bson.D{
				{Key: "pageViews", Value: true},
				{Key: "buttonClicks", Value: false},
				{Key: "visitTime", Value: true},
			}},
		}))

		cfg, err := repo.Get(context.Background(), "193-15-1036")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if cfg == nil {
			t.Fatal("expected a config")
		}
		if !cfg.Enabled.PageViews || cfg.Enabled.ButtonClicks {
			t.Errorf("toggles: got %+v", cfg.Enabled)
		}
	})

	mt.Run("absent means nil, nil", func(mt *mtest.T) {
		repo := &ActivityConfigRepo{MongoCollection: mt.Coll}
		ns := mt.DB.Name() + "." + mt.Coll.Name()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		cfg, err := repo.Get(context.Background(), "ghost")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if cfg != nil {
			t.Errorf("expected nil for a user with no saved config, got %+v", cfg)
		}
	})
}

func TestActivityConfigRepoUpsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("writes the toggles", func(mt *mtest.T) {
		repo := &ActivityConfigRepo{MongoCollection: mt.Coll}

		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		cfg := model.DefaultActivityConfig("193-15-1036")
		cfg.Enabled.FormInputs = false

		if err := repo.Upsert(context.Background(), cfg); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	})

	mt.Run("rejects a config without an owner", func(mt *mtest.T) {
		repo := &ActivityConfigRepo{MongoCollection: mt.Coll}

		if err := repo.Upsert(context.Background(), &model.ActivityConfig{}); err == nil {
			t.Error("expected an error for a config without a user")
		}
		if err := repo.Upsert(context.Background(), nil); err == nil {
			t.Error("expected an error for a nil config")
		}
	})
}
