// ABOUTME: storage.Store implementation on Charm KV.
// ABOUTME: Uses path-shaped keys per user and client-side filtering.
package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/storage"
)

// Key prefixes.
const (
	UsersPrefix  = "users/"
	EmailsPrefix = "emails/"
)

// ProfileKey returns users/{userId}/profile.
func ProfileKey(userID string) string {
	return UsersPrefix + userID + "/profile"
}

// AccountKey returns users/{userId}/account.
func AccountKey(userID string) string {
	return UsersPrefix + userID + "/account"
}

// EmailKey returns the email index key.
func EmailKey(email string) string {
	return EmailsPrefix + email
}

// MetricsPrefix returns users/{userId}/healthMetrics/.
func MetricsPrefix(userID string) string {
	return UsersPrefix + userID + "/healthMetrics/"
}

// StatusTypesPrefix returns users/{userId}/statusTypes/.
func StatusTypesPrefix(userID string) string {
	return UsersPrefix + userID + "/statusTypes/"
}

// Store keeps health status documents in a Charm KV database.
type Store struct {
	c *Client
	// guards read-modify-write sequences
	mu sync.Mutex
}

// Compile-time check that Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

type statusTypeRecord struct {
	models.StatusType
	CreatedAt time.Time `json:"created_at"`
}

// NewStore wraps a client.
func NewStore(c *Client) *Store {
	return &Store{c: c}
}

// Client returns the underlying KV client.
func (s *Store) Client() *Client {
	return s.c
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.c.Close()
}

func (s *Store) getJSON(key string, v any) error {
	data, err := s.c.get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Store) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.c.set(key, data)
}

// SaveProfile merges upd into the stored profile.
func (s *Store) SaveProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if p == nil {
		p = &models.UserProfile{}
	}
	upd.Apply(p, time.Now())

	if err := s.putJSON(ProfileKey(userID), p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// GetProfile loads the user's profile.
func (s *Store) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.getJSON(ProfileKey(userID), &p); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// CreateAccount stores an account and its email index entry.
func (s *Store) CreateAccount(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.c.get(EmailKey(a.Email)); err == nil {
		return storage.ErrEmailTaken
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("create account: %w", err)
	}

	if err := s.putJSON(AccountKey(a.UserID), a); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if err := s.c.set(EmailKey(a.Email), []byte(a.UserID)); err != nil {
		return fmt.Errorf("index account email: %w", err)
	}
	return nil
}

// GetAccount loads an account by user id.
func (s *Store) GetAccount(_ context.Context, userID string) (*models.Account, error) {
	var a models.Account
	if err := s.getJSON(AccountKey(userID), &a); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// GetAccountByEmail resolves the email index then loads the account.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	uid, err := s.c.get(EmailKey(email))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("get account: %w", storage.ErrNotFound)
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return s.GetAccount(ctx, string(uid))
}

// UpdatePasswordHash replaces an account's password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.GetAccount(ctx, userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	a.PasswordHash = hash
	if err := s.putJSON(AccountKey(userID), a); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// AddMetric stores a metric record, assigning an id when empty.
func (s *Store) AddMetric(_ context.Context, userID string, m *models.HealthMetric) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if err := s.putJSON(MetricsPrefix(userID)+m.ID, m); err != nil {
		return fmt.Errorf("add metric: %w", err)
	}
	return nil
}

// QueryMetrics scans the user's metrics and filters client-side, newest first.
func (s *Store) QueryMetrics(_ context.Context, userID string, q storage.MetricQuery) ([]*models.HealthMetric, error) {
	allData, err := s.c.listByPrefix(MetricsPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}

	var metrics []*models.HealthMetric
	for _, data := range allData {
		m, err := unmarshalJSON[models.HealthMetric](data)
		if err != nil {
			continue // Skip invalid entries
		}
		if !q.Matches(m) {
			continue
		}
		metrics = append(metrics, m)
	}

	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Timestamp.After(metrics[j].Timestamp)
	})
	return metrics, nil
}

// DeleteMetric removes a metric; missing ids are ignored.
func (s *Store) DeleteMetric(_ context.Context, userID, metricID string) error {
	if err := s.c.delete(MetricsPrefix(userID) + metricID); err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	return nil
}

// PutStatusType overwrites a custom status type, keeping its original position.
func (s *Store) PutStatusType(_ context.Context, userID string, st models.StatusType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := StatusTypesPrefix(userID) + st.ID
	rec := statusTypeRecord{StatusType: st, CreatedAt: time.Now()}

	var existing statusTypeRecord
	if err := s.getJSON(key, &existing); err == nil {
		rec.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("put status type: %w", err)
	}

	if err := s.putJSON(key, rec); err != nil {
		return fmt.Errorf("put status type: %w", err)
	}
	return nil
}

// ListStatusTypes returns custom status types in creation order.
func (s *Store) ListStatusTypes(_ context.Context, userID string) ([]models.StatusType, error) {
	allData, err := s.c.listByPrefix(StatusTypesPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("list status types: %w", err)
	}

	var recs []*statusTypeRecord
	for _, data := range allData {
		r, err := unmarshalJSON[statusTypeRecord](data)
		if err != nil {
			continue
		}
		recs = append(recs, r)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})

	types := make([]models.StatusType, 0, len(recs))
	for _, r := range recs {
		types = append(types, r.StatusType)
	}
	return types, nil
}

// DeleteStatusType removes a custom status type; missing ids are ignored.
func (s *Store) DeleteStatusType(_ context.Context, userID, statusID string) error {
	if err := s.c.delete(StatusTypesPrefix(userID) + statusID); err != nil {
		return fmt.Errorf("delete status type: %w", err)
	}
	return nil
}
