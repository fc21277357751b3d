// ABOUTME: Store interface for per-user health status documents.
// ABOUTME: Defines the contract for profiles, accounts, metric records, and status types.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/healthstatus/internal/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// MetricQuery selects metric records by exact type and an inclusive timestamp range.
type MetricQuery struct {
	Type  string
	Start time.Time
	End   time.Time
}

// Matches reports whether m satisfies the query.
func (q MetricQuery) Matches(m *models.HealthMetric) bool {
	if m.Type != q.Type {
		return false
	}
	return !m.Timestamp.Before(q.Start) && !m.Timestamp.After(q.End)
}

// Store is the document store behind the application. Every method is scoped
// to a single user; one user's documents are never visible to another.
type Store interface {
	// Profile operations (users/{userId})
	SaveProfile(ctx context.Context, userID string, upd models.ProfileUpdate) error
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	// Account operations backing the identity provider
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error

	// Metric operations (users/{userId}/healthMetrics/{metricId})
	AddMetric(ctx context.Context, userID string, m *models.HealthMetric) error
	QueryMetrics(ctx context.Context, userID string, q MetricQuery) ([]*models.HealthMetric, error)
	DeleteMetric(ctx context.Context, userID, metricID string) error

	// Status type operations (users/{userId}/statusTypes/{statusId})
	PutStatusType(ctx context.Context, userID string, st models.StatusType) error
	ListStatusTypes(ctx context.Context, userID string) ([]models.StatusType, error)
	DeleteStatusType(ctx context.Context, userID, statusID string) error

	// Lifecycle
	Close() error
}

// ErrEmailTaken is returned by CreateAccount when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")
