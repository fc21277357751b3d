// ABOUTME: Windowed metric queries and the metric write path.
// ABOUTME: Windows are local-day aligned; the dashboard fetches month and year concurrently.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/healthstatus/internal/logging"
	"github.com/harperreed/healthstatus/internal/models"
	"github.com/harperreed/healthstatus/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrMetricFetchFailed wraps store failures on reads.
	ErrMetricFetchFailed = errors.New("failed to fetch metrics")
	// ErrMetricWriteFailed wraps store failures on writes.
	ErrMetricWriteFailed = errors.New("failed to save metric")
	// ErrInvalidDate is returned when a selected date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrValueRequired is returned when a metric value or type is blank.
	ErrValueRequired = errors.New("metric type and value are required")
)

// DateLayout is the selected-date format accepted by AddMetric.
const DateLayout = "2006-01-02"

// Trailing window lengths.
const (
	MonthWindowDays = 30
	YearWindowYears = 1
)

// Service reads and writes metric records for one store.
type Service struct {
	store  storage.Store
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used for day alignment. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// New creates a Service.
func New(store storage.Store, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		logger: logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the zone used for day alignment.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the current local date as YYYY-MM-DD.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// Windows holds the two dashboard windows.
type Windows struct {
	Month []*models.HealthMetric `json:"month"`
	Year  []*models.HealthMetric `json:"year"`
}

// DayBounds widens [start, end] to 00:00:00.000 on start's day and
// 23:59:59.999 on end's day, both in loc.
func DayBounds(start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	s := start.In(loc)
	e := end.In(loc)
	from := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	to := time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return from, to
}

// MonthRange returns today minus 30 days through today.
func (s *Service) MonthRange() (time.Time, time.Time) {
	today := s.now().In(s.loc)
	return today.AddDate(0, 0, -MonthWindowDays), today
}

// YearRange returns today minus one calendar year through today.
func (s *Service) YearRange() (time.Time, time.Time) {
	today := s.now().In(s.loc)
	return today.AddDate(-YearWindowYears, 0, 0), today
}

// FetchWindow returns records of typeID within the day-aligned window, newest first.
func (s *Service) FetchWindow(ctx context.Context, userID, typeID string, start, end time.Time) ([]*models.HealthMetric, error) {
	from, to := DayBounds(start, end, s.loc)
	records, err := s.store.QueryMetrics(ctx, userID, storage.MetricQuery{Type: typeID, Start: from, End: to})
	if err != nil {
		s.logger.Error("fetch metrics failed",
			zap.String("user_id", userID),
			zap.String("type", typeID),
			zap.Time("start", from),
			zap.Time("end", to),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrMetricFetchFailed, err)
	}
	return records, nil
}

// FetchLastMonth returns the trailing 30-day window.
func (s *Service) FetchLastMonth(ctx context.Context, userID, typeID string) ([]*models.HealthMetric, error) {
	start, end := s.MonthRange()
	return s.FetchWindow(ctx, userID, typeID, start, end)
}

// FetchLastYear returns the trailing one-year window.
func (s *Service) FetchLastYear(ctx context.Context, userID, typeID string) ([]*models.HealthMetric, error) {
	start, end := s.YearRange()
	return s.FetchWindow(ctx, userID, typeID, start, end)
}

// FetchDashboardWindows fetches both windows concurrently. If either fails the
// whole call fails and no partial result is returned.
func (s *Service) FetchDashboardWindows(ctx context.Context, userID, typeID string) (*Windows, error) {
	var w Windows
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		month, err := s.FetchLastMonth(gctx, userID, typeID)
		if err != nil {
			return err
		}
		w.Month = month
		return nil
	})
	g.Go(func() error {
		year, err := s.FetchLastYear(gctx, userID, typeID)
		if err != nil {
			return err
		}
		w.Year = year
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &w, nil
}

// ParseSelectedDate parses YYYY-MM-DD into 23:59:59 on that day in loc.
func ParseSelectedDate(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return models.EndOfDay(d.Year(), d.Month(), d.Day(), loc), nil
}

// AddMetric stores rawValue for typeID on the selected day. The value is kept
// as entered; numeric validity is checked only when classified.
func (s *Service) AddMetric(ctx context.Context, userID, typeID, rawValue, selectedDate string) (*models.HealthMetric, error) {
	if strings.TrimSpace(typeID) == "" || strings.TrimSpace(rawValue) == "" {
		return nil, ErrValueRequired
	}
	ts, err := ParseSelectedDate(selectedDate, s.loc)
	if err != nil {
		return nil, err
	}

	m := &models.HealthMetric{Type: typeID, Value: rawValue, Timestamp: ts}
	if err := s.store.AddMetric(ctx, userID, m); err != nil {
		s.logger.Error("add metric failed",
			zap.String("user_id", userID),
			zap.String("type", typeID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrMetricWriteFailed, err)
	}

	s.logger.Debug("metric added",
		zap.String("user_id", userID),
		zap.String("type", typeID),
		zap.String("id", m.ID))
	return m, nil
}

// DeleteMetric removes a record by id. Missing ids succeed.
func (s *Service) DeleteMetric(ctx context.Context, userID, metricID string) error {
	if err := s.store.DeleteMetric(ctx, userID, metricID); err != nil {
		s.logger.Error("delete metric failed",
			zap.String("user_id", userID),
			zap.String("id", metricID),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrMetricWriteFailed, err)
	}
	return nil
}
