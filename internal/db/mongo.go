package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collections struct {
	Guides          *mongo.Collection
	ServiceRequests *mongo.Collection
	Reviews         *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Collections, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(dbName)

	cols := &Collections{
		Guides:          db.Collection("guides"),
		ServiceRequests: db.Collection("service_requests"),
		Reviews:         db.Collection("user_reviews"),
	}

	return client, cols, nil
}

// EnsureIndexes creates the indexes the services rely on. The unique slug
// index is the backstop for concurrent guide creation: two racing inserts
// with the same slug cannot both land.
func EnsureIndexes(ctx context.Context, cols *Collections) error {
	indexTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := cols.Guides.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "is_published", Value: 1}, {Key: "publication_date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "is_published", Value: 1}, {Key: "view_count", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.ServiceRequests.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return err
	}

	_, err = cols.Reviews.Indexes().CreateMany(indexTimeout, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "is_approved", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "is_approved", Value: 1}, {Key: "is_featured", Value: 1}},
		},
	})
	if err != nil {
		return err
	}

	return nil
}
