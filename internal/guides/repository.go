package guides

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, g Guide) error
	GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Guide, error)
	GetByID(ctx context.Context, id string) (Guide, error)
	List(ctx context.Context, filter ListFilter, ordering Ordering, lang string, limit, offset int64) ([]Guide, error)
	Count(ctx context.Context, filter ListFilter) (int64, error)
	ListRelated(ctx context.Context, category, excludeID string, limit int64) ([]Guide, error)
	IncrementViewCount(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) (int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id string, set bson.M) (Guide, error)
	PutTranslation(ctx context.Context, id, lang string, tr Translation, now time.Time) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, g Guide) error {
	_, err := r.col.InsertOne(ctx, g)
	return err
}

func (r *MongoRepository) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (Guide, error) {
	query := bson.M{"slug": slug}
	if publishedOnly {
		query["is_published"] = true
	}

	var g Guide
	if err := r.col.FindOne(ctx, query).Decode(&g); err != nil {
		return Guide{}, err
	}
	return g, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (Guide, error) {
	var g Guide
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return Guide{}, err
	}
	return g, nil
}

func buildListQuery(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.PublishedOnly {
		query["is_published"] = true
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.IsFeatured != nil {
		query["is_featured"] = *filter.IsFeatured
	}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		or := make([]bson.M, 0, len(SupportedLangs)*3)
		for _, lang := range SupportedLangs {
			prefix := "translations." + lang + "."
			or = append(or,
				bson.M{prefix + "title": re},
				bson.M{prefix + "short_description": re},
				bson.M{prefix + "content": re},
			)
		}
		query["$or"] = or
	}
	return query
}

func sortSpec(ordering Ordering, lang string) bson.D {
	dir := 1
	if ordering.descending() {
		dir = -1
	}

	field := ordering.field()
	if field == "title" {
		// titles live inside the per-language translation maps
		field = "translations." + lang + ".title"
	}

	// stable tie-break so paging never duplicates or drops items
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: 1}}
}

func (r *MongoRepository) List(ctx context.Context, filter ListFilter, ordering Ordering, lang string, limit, offset int64) ([]Guide, error) {
	opts := options.Find().
		SetSort(sortSpec(ordering, lang)).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.col.Find(ctx, buildListQuery(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Guide, 0)
	for cursor.Next(ctx) {
		var g Guide
		if err := cursor.Decode(&g); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MongoRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	return r.col.CountDocuments(ctx, buildListQuery(filter))
}

func (r *MongoRepository) ListRelated(ctx context.Context, category, excludeID string, limit int64) ([]Guide, error) {
	query := bson.M{
		"category":     category,
		"is_published": true,
		"_id":          bson.M{"$ne": excludeID},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "publication_date", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]Guide, 0)
	for cursor.Next(ctx) {
		var g Guide
		if err := cursor.Decode(&g); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// IncrementViewCount applies the bump server-side so concurrent detail
// views never lose updates.
func (r *MongoRepository) IncrementViewCount(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"view_count": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository) IncrementLikes(ctx context.Context, id string) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var g Guide
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_published": true},
		bson.M{"$inc": bson.M{"likes": 1}},
		opts,
	).Decode(&g)
	if err != nil {
		return 0, err
	}
	return g.Likes, nil
}

func (r *MongoRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *MongoRepository) Update(ctx context.Context, id string, set bson.M) (Guide, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Guide
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated); err != nil {
		return Guide{}, err
	}
	return updated, nil
}

func (r *MongoRepository) PutTranslation(ctx context.Context, id, lang string, tr Translation, now time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"translations." + lang: tr,
		"updated_at":           now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
