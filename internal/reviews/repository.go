package reviews

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Create(ctx context.Context, review Review) error
	List(ctx context.Context, filter ListFilter, ordering Ordering, limit, offset int64) ([]Review, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	GetByID(ctx context.Context, id string) (Review, error)
	IncrementHelpfulVotes(ctx context.Context, id string) (int64, error)
	Update(ctx context.Context, id string, set bson.M) (Review, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, review Review) error {
	_, err := r.col.InsertOne(ctx, review)
	return err
}

func (r *MongoRepository) filterToBSON(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.ApprovedOnly {
		query["is_approved"] = true
	} else if filter.IsApproved != nil {
		query["is_approved"] = *filter.IsApproved
	}
	if filter.Rating != 0 {
		query["rating"] = filter.Rating
	}
	if filter.ServiceUsed != "" {
		query["service_used"] = filter.ServiceUsed
	}
	if filter.IsVerified != nil {
		query["is_verified"] = *filter.IsVerified
	}
	if filter.IsFeatured != nil {
		query["is_featured"] = *filter.IsFeatured
	}
	return query
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, ordering Ordering, limit, offset int64) ([]Review, error) {
	dir := 1
	if ordering.descending() {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: ordering.field(), Value: dir}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, r.filterToBSON(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Review, 0)
	for cursor.Next(ctx) {
		var review Review
		if err := cursor.Decode(&review); err != nil {
			return nil, err
		}
		items = append(items, review)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, r.filterToBSON(filter))
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Review, error) {
	var review Review
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return Review{}, err
	}
	return review, nil
}

// IncrementHelpfulVotes bumps the counter server-side and only for
// approved reviews, returning the new value.
func (r *MongoRepository) IncrementHelpfulVotes(ctx context.Context, id string) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var review Review
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_approved": true},
		bson.M{"$inc": bson.M{"helpful_votes": 1}},
		opts,
	).Decode(&review)
	if err != nil {
		return 0, err
	}
	return review.HelpfulVotes, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M) (Review, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Review
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Review{}, err
	}
	return updated, nil
}
