// ABOUTME: Builds the chart-ready dashboard for one status type.
// ABOUTME: Resolves thresholds, fetches both windows, and shapes bar, line and recent data.
package dashboard

import (
	"context"

	"github.com/harperreed/healthstatus/internal/metrics"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/registry"
	"github.com/harperreed/healthstatus/internal/series"
)

// Dashboard is everything needed to draw one status type's panel.
type Dashboard struct {
	StatusType models.StatusType      `json:"status_type"`
	Month      []*models.HealthMetric `json:"month"`
	Year       []*models.HealthMetric `json:"year"`
	Buckets    series.Buckets         `json:"buckets"`
	Line       series.LineSeries      `json:"line"`
	Recent     []*models.HealthMetric `json:"recent"`
}

// Service composes the registry and metric queries.
type Service struct {
	registry *registry.Registry
	metrics  *metrics.Service
}

// New creates a Service.
func New(reg *registry.Registry, m *metrics.Service) *Service {
	return &Service{registry: reg, metrics: m}
}

// Registry returns the underlying registry.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Metrics returns the underlying metric service.
func (s *Service) Metrics() *metrics.Service {
	return s.metrics
}

// Load builds the dashboard. Bar buckets and recent rows come from the month
// window; the line series comes from the year window.
func (s *Service) Load(ctx context.Context, userID, typeID string) (*Dashboard, error) {
	st, err := s.registry.Resolve(ctx, userID, typeID)
	if err != nil {
		return nil, err
	}
	w, err := s.metrics.FetchDashboardWindows(ctx, userID, typeID)
	if err != nil {
		return nil, err
	}
	return Build(st, w), nil
}

// Build shapes fetched windows into a Dashboard.
func Build(st models.StatusType, w *metrics.Windows) *Dashboard {
	month := w.Month
	if month == nil {
		month = []*models.HealthMetric{}
	}
	year := w.Year
	if year == nil {
		year = []*models.HealthMetric{}
	}
	return &Dashboard{
		StatusType: st,
		Month:      month,
		Year:       year,
		Buckets:    series.ToBarBuckets(month, st.Thresholds),
		Line:       series.ToLineSeries(year, st.Thresholds, st.Name),
		Recent:     series.Recent(month, series.RecentLimit),
	}
}
