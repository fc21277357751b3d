// ABOUTME: Status type registry: built-in types plus per-user custom types.
// ABOUTME: Enforces id uniqueness and protects built-ins from deletion.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/healthstatus/internal/logging"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/sanitize"
	"github.com/harperreed/healthstatus/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateID is returned when a derived id collides with a built-in or existing custom id.
	ErrDuplicateID = errors.New("status type already exists")
	// ErrProtectedEntity is returned when removing a built-in status type.
	ErrProtectedEntity = errors.New("built-in status types cannot be removed")
	// ErrUnknownStatusType is returned when an id has no custom definition and no default thresholds.
	ErrUnknownStatusType = errors.New("unknown status type")
	// ErrInvalidName is returned when a name is empty after sanitizing.
	ErrInvalidName = errors.New("status type name is required")
)

// Registry manages the catalog of status types available to a user.
// It keeps no cache; callers re-list after mutating.
type Registry struct {
	store  storage.Store
	logger *zap.Logger
}

// New creates a registry backed by store.
func New(store storage.Store, logger *zap.Logger) *Registry {
	return &Registry{store: store, logger: logging.OrNop(logger)}
}

// List returns the built-in types followed by the user's custom types in store order.
func (r *Registry) List(ctx context.Context, userID string) ([]models.StatusType, error) {
	custom, err := r.store.ListStatusTypes(ctx, userID)
	if err != nil {
		r.logger.Error("list status types failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("list status types: %w", err)
	}
	return append(models.BuiltinStatusTypes(), custom...), nil
}

// Add derives an id from name, rejects collisions, and persists the new type.
func (r *Registry) Add(ctx context.Context, userID, name string, thresholds models.ThresholdSet) (models.StatusType, error) {
	name = sanitize.PlainText(name)
	if name == "" {
		return models.StatusType{}, ErrInvalidName
	}

	thresholds.Ranges = models.RangeNames{
		Normal:   sanitize.PlainText(thresholds.Ranges.Normal),
		Elevated: sanitize.PlainText(thresholds.Ranges.Elevated),
		High:     sanitize.PlainText(thresholds.Ranges.High),
	}
	t, err := models.NewThresholdSet(thresholds.Normal, thresholds.Elevated, thresholds.High, thresholds.Ranges)
	if err != nil {
		return models.StatusType{}, err
	}

	st := models.StatusType{ID: models.StatusIDFromName(name), Name: name, Thresholds: t}

	if models.IsBuiltinStatusID(st.ID) {
		return models.StatusType{}, fmt.Errorf("%w: %s", ErrDuplicateID, st.ID)
	}
	existing, err := r.store.ListStatusTypes(ctx, userID)
	if err != nil {
		r.logger.Error("list status types failed", zap.String("user_id", userID), zap.Error(err))
		return models.StatusType{}, fmt.Errorf("add status type: %w", err)
	}
	for _, e := range existing {
		if e.ID == st.ID {
			return models.StatusType{}, fmt.Errorf("%w: %s", ErrDuplicateID, st.ID)
		}
	}

	if err := r.store.PutStatusType(ctx, userID, st); err != nil {
		r.logger.Error("put status type failed",
			zap.String("user_id", userID),
			zap.String("status_id", st.ID),
			zap.Error(err))
		return models.StatusType{}, fmt.Errorf("add status type: %w", err)
	}

	r.logger.Debug("status type added", zap.String("user_id", userID), zap.String("status_id", st.ID))
	return st, nil
}

// Remove deletes a custom type. Built-ins are refused; missing ids succeed.
func (r *Registry) Remove(ctx context.Context, userID, id string) error {
	if models.IsBuiltinStatusID(id) {
		return fmt.Errorf("%w: %s", ErrProtectedEntity, id)
	}
	if err := r.store.DeleteStatusType(ctx, userID, id); err != nil {
		r.logger.Error("delete status type failed",
			zap.String("user_id", userID),
			zap.String("status_id", id),
			zap.Error(err))
		return fmt.Errorf("remove status type: %w", err)
	}
	return nil
}

// Resolve returns the status type for typeID: a built-in, or the user's custom
// definition. Unknown ids return ErrUnknownStatusType.
func (r *Registry) Resolve(ctx context.Context, userID, typeID string) (models.StatusType, error) {
	if t, ok := models.DefaultThresholds(typeID); ok {
		for _, b := range models.BuiltinStatusTypes() {
			if b.ID == typeID {
				return b, nil
			}
		}
		return models.StatusType{ID: typeID, Name: models.DisplayName(typeID), Thresholds: t}, nil
	}

	custom, err := r.store.ListStatusTypes(ctx, userID)
	if err != nil {
		r.logger.Error("list status types failed", zap.String("user_id", userID), zap.Error(err))
		return models.StatusType{}, fmt.Errorf("resolve status type: %w", err)
	}
	for _, c := range custom {
		if c.ID == typeID {
			return c, nil
		}
	}
	return models.StatusType{}, fmt.Errorf("%w: %s", ErrUnknownStatusType, typeID)
}
