// ABOUTME: MongoDB-backed Store for server deployments.
// ABOUTME: Per-user subcollections become collections carrying a user_id field.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthstatus/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore stores health status documents in MongoDB.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	accounts *mongo.Collection
	metrics  *mongo.Collection
	statuses *mongo.Collection
}

// Compile-time check that MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

type metricDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Type      string    `bson:"type"`
	Value     string    `bson:"value"`
	Timestamp time.Time `bson:"timestamp"`
}

type statusTypeDoc struct {
	Key        string              `bson:"_id"`
	UserID     string              `bson:"user_id"`
	ID         string              `bson:"id"`
	Name       string              `bson:"name"`
	Thresholds models.ThresholdSet `bson:"thresholds"`
	CreatedAt  time.Time           `bson:"created_at"`
}

// OpenMongo connects to uri, selects database, and ensures indexes.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := NewMongoStore(client, client.Database(database))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStore wraps an existing database handle.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client:   client,
		users:    db.Collection("users"),
		accounts: db.Collection("accounts"),
		metrics:  db.Collection("healthMetrics"),
		statuses: db.Collection("statusTypes"),
	}
}

// EnsureIndexes creates the indexes the queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_account_email"),
	}); err != nil {
		return fmt.Errorf("create account index: %w", err)
	}
	if _, err := s.metrics.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "type", Value: 1},
			{Key: "timestamp", Value: -1},
		},
		Options: options.Index().SetName("idx_metric_user_type_ts"),
	}); err != nil {
		return fmt.Errorf("create metric index: %w", err)
	}
	if _, err := s.statuses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("idx_status_user"),
	}); err != nil {
		return fmt.Errorf("create status index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// SaveProfile merges upd into users/{userId}.
func (s *MongoStore) SaveProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	set := bson.M{"updatedAt": time.Now()}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	_, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile loads users/{userId}.
func (s *MongoStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("get profile %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// CreateAccount inserts an account; duplicate emails return ErrEmailTaken.
func (s *MongoStore) CreateAccount(ctx context.Context, a *models.Account) error {
	if _, err := s.accounts.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount loads an account by user id.
func (s *MongoStore) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": userID})
}

// GetAccountByEmail loads an account by email.
func (s *MongoStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findAccount(ctx, bson.M{"email": email})
}

func (s *MongoStore) findAccount(ctx context.Context, filter bson.M) (*models.Account, error) {
	var a models.Account
	if err := s.accounts.FindOne(ctx, filter).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("get account: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// UpdatePasswordHash replaces an account's password hash.
func (s *MongoStore) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := s.accounts.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"password_hash": hash}},
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update password %s: %w", userID, ErrNotFound)
	}
	return nil
}

// AddMetric inserts a metric record, assigning an id when empty.
func (s *MongoStore) AddMetric(ctx context.Context, userID string, m *models.HealthMetric) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	doc := metricDoc{ID: m.ID, UserID: userID, Type: m.Type, Value: m.Value, Timestamp: m.Timestamp}
	if _, err := s.metrics.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("add metric: %w", err)
	}
	return nil
}

// QueryMetrics filters by type equality and inclusive timestamp range, newest first.
func (s *MongoStore) QueryMetrics(ctx context.Context, userID string, q MetricQuery) ([]*models.HealthMetric, error) {
	filter := bson.M{
		"user_id": userID,
		"type":    q.Type,
		"timestamp": bson.M{
			"$gte": q.Start,
			"$lte": q.End,
		},
	}
	cur, err := s.metrics.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer cur.Close(ctx)

	var docs []metricDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}

	metrics := make([]*models.HealthMetric, 0, len(docs))
	for _, d := range docs {
		metrics = append(metrics, &models.HealthMetric{
			ID:        d.ID,
			Type:      d.Type,
			Value:     d.Value,
			Timestamp: d.Timestamp.Local(),
		})
	}
	return metrics, nil
}

// DeleteMetric removes a metric by id; missing ids are ignored.
func (s *MongoStore) DeleteMetric(ctx context.Context, userID, metricID string) error {
	if _, err := s.metrics.DeleteOne(ctx, bson.M{"_id": metricID, "user_id": userID}); err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	return nil
}

func statusKey(userID, statusID string) string {
	return userID + "/" + statusID
}

// PutStatusType overwrites users/{userId}/statusTypes/{id}.
func (s *MongoStore) PutStatusType(ctx context.Context, userID string, st models.StatusType) error {
	key := statusKey(userID, st.ID)
	_, err := s.statuses.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$set": bson.M{
				"user_id":    userID,
				"id":         st.ID,
				"name":       st.Name,
				"thresholds": st.Thresholds,
			},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put status type: %w", err)
	}
	return nil
}

// ListStatusTypes returns the user's custom status types.
func (s *MongoStore) ListStatusTypes(ctx context.Context, userID string) ([]models.StatusType, error) {
	cur, err := s.statuses.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list status types: %w", err)
	}
	defer cur.Close(ctx)

	var docs []statusTypeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode status types: %w", err)
	}

	types := make([]models.StatusType, 0, len(docs))
	for _, d := range docs {
		types = append(types, models.StatusType{ID: d.ID, Name: d.Name, Thresholds: d.Thresholds})
	}
	return types, nil
}

// DeleteStatusType removes a custom status type; missing ids are ignored.
func (s *MongoStore) DeleteStatusType(ctx context.Context, userID, statusID string) error {
	if _, err := s.statuses.DeleteOne(ctx, bson.M{"_id": statusKey(userID, statusID)}); err != nil {
		return fmt.Errorf("delete status type: %w", err)
	}
	return nil
}
