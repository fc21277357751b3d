// ABOUTME: Stateful dashboard selection for one user.
// ABOUTME: Loads that finish after a newer selection are discarded.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
)

// ErrStale is returned when a load finished after a newer selection began.
var ErrStale = errors.New("selection changed before load finished")

// View tracks the selected status type and its last applied dashboard.
type View struct {
	svc    *Service
	userID string
	seq    metrics.Sequencer

	mu       sync.RWMutex
	selected string
	current  *Dashboard
}

// NewView creates a view for userID.
func NewView(svc *Service, userID string) *View {
	return &View{svc: svc, userID: userID}
}

// Select loads typeID and applies it if no newer selection started meanwhile.
// The token and the selection change together under v.mu.
func (v *View) Select(ctx context.Context, typeID string) (*Dashboard, error) {
	v.mu.Lock()
	tok := v.seq.Begin(typeID)
	v.selected = typeID
	v.mu.Unlock()

	return v.load(ctx, tok)
}

// Refresh reloads the selected type.
func (v *View) Refresh(ctx context.Context) (*Dashboard, error) {
	v.mu.Lock()
	typeID := v.selected
	if typeID == "" {
		v.mu.Unlock()
		return nil, nil
	}
	tok := v.seq.Begin(typeID)
	v.mu.Unlock()

	return v.load(ctx, tok)
}

// AddMetric writes a reading for the selected type and reloads the windows.
func (v *View) AddMetric(ctx context.Context, rawValue, selectedDate string) (*models.HealthMetric, *Dashboard, error) {
	v.mu.RLock()
	typeID := v.selected
	v.mu.RUnlock()

	m, err := v.svc.metrics.AddMetric(ctx, v.userID, typeID, rawValue, selectedDate)
	if err != nil {
		return nil, nil, err
	}
	d, err := v.Refresh(ctx)
	return m, d, err
}

// Selected returns the selected status type id.
func (v *View) Selected() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selected
}

// Current returns the last applied dashboard, or nil.
func (v *View) Current() *Dashboard {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

func (v *View) load(ctx context.Context, tok metrics.Token) (*Dashboard, error) {
	d, err := v.svc.Load(ctx, v.userID, tok.Type)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seq.IsCurrent(tok) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, err
	}
	v.current = d
	return d, nil
}
