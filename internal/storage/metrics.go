// ABOUTME: Metric record operations for SQLite storage.
// ABOUTME: Implements add, windowed query, and delete for users/{id}/healthMetrics.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/healthstatus/internal/models"
)

// AddMetric stores a new metric record. An empty ID is assigned by the store.
func (d *DB) AddMetric(ctx context.Context, userID string, m *models.HealthMetric) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO health_metrics (id, user_id, type, value, timestamp_ms)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, userID, m.Type, m.Value, m.Timestamp.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("add metric: %w", err)
	}
	return nil
}

// QueryMetrics returns records of one type whose timestamp falls in [Start, End],
// most recent first.
func (d *DB) QueryMetrics(ctx context.Context, userID string, q MetricQuery) ([]*models.HealthMetric, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, type, value, timestamp_ms
		FROM health_metrics
		WHERE user_id = ? AND type = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms DESC`,
		userID, q.Type, q.Start.UnixMilli(), q.End.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// DeleteMetric removes a metric by id. Deleting a missing id is not an error.
func (d *DB) DeleteMetric(ctx context.Context, userID, metricID string) error {
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM health_metrics WHERE user_id = ? AND id = ?", userID, metricID); err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	return nil
}

// scanMetrics scans multiple rows into a slice of metrics.
func scanMetrics(rows *sql.Rows) ([]*models.HealthMetric, error) {
	var metrics []*models.HealthMetric

	for rows.Next() {
		var m models.HealthMetric
		var ts int64
		if err := rows.Scan(&m.ID, &m.Type, &m.Value, &ts); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		m.Timestamp = time.UnixMilli(ts)
		metrics = append(metrics, &m)
	}

	return metrics, rows.Err()
}
