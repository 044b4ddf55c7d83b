package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "notifications"

// MongoStorage is the production implementation of Storage backed by MongoDB.
type MongoStorage struct {
	coll *mongo.Collection
}

// MongoStorageOption configures a MongoStorage.
type MongoStorageOption func(*mongoStorageConfig)

type mongoStorageConfig struct {
	collection string
}

// WithCollection overrides the collection name.
func WithCollection(name string) MongoStorageOption {
	return func(c *mongoStorageConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// NewMongoStorage creates a Mongo-backed notification store.
func NewMongoStorage(db *mongo.Database, opts ...MongoStorageOption) (*MongoStorage, error) {
	if db == nil {
		return nil, errors.New("mongo database cannot be nil")
	}

	cfg := &mongoStorageConfig{collection: DefaultCollection}
	for _, opt := range opts {
		opt(cfg)
	}

	return &MongoStorage{coll: db.Collection(cfg.collection)}, nil
}

// EnsureIndexes creates the indexes the store relies on: the list index,
// the unread-count index and the TTL index that destroys expired records
// independent of their state.
func (s *MongoStorage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "category", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func (s *MongoStorage) Create(ctx context.Context, n Notification) error {
	if n.UserID == "" {
		return ErrInvalidInput
	}

	n.Normalize(time.Now())

	if _, err := s.coll.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (s *MongoStorage) CreateBatch(ctx context.Context, ns []Notification) error {
	if len(ns) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]any, 0, len(ns))
	for _, n := range ns {
		if n.UserID == "" {
			return ErrInvalidInput
		}
		n.Normalize(now)
		docs = append(docs, n)
	}

	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert notification batch: %w", err)
	}
	return nil
}

func (s *MongoStorage) Get(ctx context.Context, userID, id string) (*Notification, error) {
	var n Notification
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return &n, nil
}

func (s *MongoStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error) {
	opts = opts.normalized()

	filter := bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}
	if opts.Read != nil {
		filter["read"] = *opts.Read
	}

	order := -1
	if opts.SortOrder == SortAsc {
		order = 1
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: opts.SortBy, Value: order}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var out []Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	if out == nil {
		out = []Notification{}
	}
	return out, nil
}

func (s *MongoStorage) MarkRead(ctx context.Context, userID, id string) (*Notification, error) {
	return s.mutate(ctx, userID, id, func(n *Notification, now time.Time) {
		n.MarkAsRead(now)
	})
}

func (s *MongoStorage) MarkActedUpon(ctx context.Context, userID, id string) (*Notification, error) {
	return s.mutate(ctx, userID, id, func(n *Notification, now time.Time) {
		n.MarkActedUpon(now)
	})
}

func (s *MongoStorage) Dismiss(ctx context.Context, userID, id string) (*Notification, error) {
	return s.mutate(ctx, userID, id, func(n *Notification, now time.Time) {
		n.Dismiss(now)
	})
}

func (s *MongoStorage) MarkAllRead(ctx context.Context, userID string, category Category) (int64, error) {
	now := time.Now()

	// Scoped to status, not the read flag: dismissed records also carry
	// read=false but are not part of the unread backlog.
	filter := bson.M{"user_id": userID, "status": StatusUnread}
	if category != "" {
		filter["category"] = category
	}

	res, err := s.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"read":                true,
		"status":              StatusRead,
		"read_at":             now,
		"analytics.opened":    true,
		"analytics.opened_at": now,
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStorage) CountUnread(ctx context.Context, userID string, category Category) (int64, error) {
	filter := bson.M{
		"user_id":    userID,
		"status":     StatusUnread,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	if category != "" {
		filter["category"] = category
	}

	count, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *MongoStorage) Stats(ctx context.Context, userID string) (*Stats, error) {
	match := bson.D{{Key: "$match", Value: bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now()},
	}}}
	facet := bson.D{{Key: "$facet", Value: bson.M{
		"total": bson.A{
			bson.M{"$count": "count"},
		},
		"unread": bson.A{
			bson.M{"$match": bson.M{"status": StatusUnread}},
			bson.M{"$count": "count"},
		},
		"by_category": bson.A{
			bson.M{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
		},
		"by_status": bson.A{
			bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
		},
	}}}

	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{match, facet})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate notification stats: %w", err)
	}

	var raw []struct {
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
		Unread []struct {
			Count int64 `bson:"count"`
		} `bson:"unread"`
		ByCategory []struct {
			ID    Category `bson:"_id"`
			Count int64    `bson:"count"`
		} `bson:"by_category"`
		ByStatus []struct {
			ID    Status `bson:"_id"`
			Count int64  `bson:"count"`
		} `bson:"by_status"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode notification stats: %w", err)
	}

	stats := &Stats{
		ByCategory: make(map[Category]int64),
		ByStatus:   make(map[Status]int64),
	}
	if len(raw) == 0 {
		return stats, nil
	}

	if len(raw[0].Total) > 0 {
		stats.Total = raw[0].Total[0].Count
	}
	if len(raw[0].Unread) > 0 {
		stats.Unread = raw[0].Unread[0].Count
	}
	for _, g := range raw[0].ByCategory {
		stats.ByCategory[g.ID] = g.Count
	}
	for _, g := range raw[0].ByStatus {
		stats.ByStatus[g.ID] = g.Count
	}

	return stats, nil
}

func (s *MongoStorage) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	return res.DeletedCount, nil
}

// mutate loads the record, applies the domain transition and persists the
// result. Transitions touch disjoint per-record state, so the read-modify-
// write is acceptable; the record store remains the single owner of
// authoritative state.
func (s *MongoStorage) mutate(ctx context.Context, userID, id string, fn func(*Notification, time.Time)) (*Notification, error) {
	n, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fn(n, time.Now())

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id, "user_id": userID}, n)
	if err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}

	return n, nil
}
