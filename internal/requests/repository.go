package requests

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, sr ServiceRequest) error
	List(ctx context.Context, filter ListFilter, limit, offset int64) ([]ServiceRequest, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	GetByID(ctx context.Context, id string) (ServiceRequest, error)
	UpdateStatus(ctx context.Context, id, from, to string, processed bool, now time.Time) (ServiceRequest, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, sr ServiceRequest) error {
	_, err := r.col.InsertOne(ctx, sr)
	return err
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]ServiceRequest, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, r.filterToBSON(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]ServiceRequest, 0)
	for cursor.Next(ctx) {
		var sr ServiceRequest
		if err := cursor.Decode(&sr); err != nil {
			return nil, err
		}
		items = append(items, sr)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (ServiceRequest, error) {
	var sr ServiceRequest
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&sr); err != nil {
		return ServiceRequest{}, err
	}
	return sr, nil
}

// UpdateStatus moves the request from one status to another. Filtering on
// the expected current status makes concurrent transitions lose cleanly
// instead of clobbering each other.
func (r *MongoRepository) UpdateStatus(ctx context.Context, id, from, to string, processed bool, now time.Time) (ServiceRequest, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"status":       to,
			"is_processed": processed,
			"updated_at":   now,
		},
	}

	var updated ServiceRequest
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&updated)
	if err != nil {
		return ServiceRequest{}, err
	}
	return updated, nil
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.IsProcessed != nil {
		query["is_processed"] = *filter.IsProcessed
	}
	return query
}
