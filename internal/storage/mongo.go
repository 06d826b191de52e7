package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/StashGoat/internal/types"
)

const articlesCollection = "articles"

// MongoStore persists articles in a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects to MongoDB and ensures the article indexes.
func NewMongoStore(uri, database string, poolSize int, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetMaxPoolSize(uint64(poolSize))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(articlesCollection),
		logger:     logger.With("component", "mongo_storage"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("mongodb storage ready", "database", database, "pool_size", poolSize)
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "url", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "category", Value: 1}},
		},
	})
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("create indexes: %w", err)}
	}
	return nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// Upsert inserts the article unless its url is already present; the
// unique url index makes the first writer win and every later call
// observe that writer's document.
func (s *MongoStore) Upsert(ctx context.Context, a *types.Article) (string, bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	filter := bson.M{"url": a.URL}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":             a.ID,
		"url":             a.URL,
		"owner_id":        a.OwnerID,
		"title":           a.Title,
		"summary":         a.Summary,
		"category":        a.Category,
		"language":        a.Language,
		"body_compressed": a.BodyCompressed,
		"created_at":      a.CreatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored types.Article
	err := s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		return "", false, &types.StorageError{Backend: "mongodb", Err: err}
	}

	created := stored.ID == a.ID
	if created {
		s.logger.Debug("article stored", "id", a.ID, "url", a.URL)
	}
	return stored.ID, created, nil
}

func (s *MongoStore) GetByURL(ctx context.Context, url string) (*types.Article, error) {
	return s.getOne(ctx, bson.M{"url": url})
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*types.Article, error) {
	return s.getOne(ctx, bson.M{"_id": id})
}

func (s *MongoStore) getOne(ctx context.Context, filter bson.M) (*types.Article, error) {
	var a types.Article
	err := s.collection.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: err}
	}
	return &a, nil
}

func (s *MongoStore) List(ctx context.Context, q ListQuery) ([]types.Article, string, error) {
	offset, err := decodePageToken(q.PageToken)
	if err != nil {
		return nil, "", &types.StorageError{Backend: "mongodb", Err: err}
	}

	filter := bson.M{"owner_id": q.OwnerID}
	if q.Category != "" {
		filter["category"] = q.Category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(q.PageSize + 1))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, "", &types.StorageError{Backend: "mongodb", Err: err}
	}
	defer cursor.Close(ctx)

	var articles []types.Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, "", &types.StorageError{Backend: "mongodb", Err: err}
	}

	var next string
	if len(articles) > q.PageSize {
		articles = articles[:q.PageSize]
		next = encodePageToken(offset + q.PageSize)
	}
	return articles, next, nil
}

func (s *MongoStore) Delete(ctx context.Context, id, ownerID string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Err: err}
	}
	if res.DeletedCount == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
