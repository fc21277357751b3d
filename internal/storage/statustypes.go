// ABOUTME: Custom status type operations for SQLite storage.
// ABOUTME: Writes are last-writer-wins overwrites keyed by (user, status id).
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/healthstatus/internal/models"
)

// PutStatusType creates or overwrites a custom status type.
func (d *DB) PutStatusType(ctx context.Context, userID string, st models.StatusType) error {
	thresholds, err := json.Marshal(st.Thresholds)
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO status_types (user_id, id, name, thresholds, position)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM status_types WHERE user_id = ?))
		ON CONFLICT(user_id, id) DO UPDATE SET
			name = excluded.name,
			thresholds = excluded.thresholds`,
		userID, st.ID, st.Name, string(thresholds), userID,
	)
	if err != nil {
		return fmt.Errorf("put status type: %w", err)
	}
	return nil
}

// ListStatusTypes returns the user's custom status types in insertion order.
func (d *DB) ListStatusTypes(ctx context.Context, userID string) ([]models.StatusType, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, thresholds
		FROM status_types
		WHERE user_id = ?
		ORDER BY position`, userID)
	if err != nil {
		return nil, fmt.Errorf("list status types: %w", err)
	}
	defer rows.Close()

	var types []models.StatusType
	for rows.Next() {
		var st models.StatusType
		var thresholds string
		if err := rows.Scan(&st.ID, &st.Name, &thresholds); err != nil {
			return nil, fmt.Errorf("scan status type: %w", err)
		}
		if err := json.Unmarshal([]byte(thresholds), &st.Thresholds); err != nil {
			return nil, fmt.Errorf("unmarshal thresholds for %s: %w", st.ID, err)
		}
		types = append(types, st)
	}
	return types, rows.Err()
}

// DeleteStatusType removes a custom status type. Missing ids are ignored.
func (d *DB) DeleteStatusType(ctx context.Context, userID, statusID string) error {
	if _, err := d.db.ExecContext(ctx,
		"DELETE FROM status_types WHERE user_id = ? AND id = ?", userID, statusID); err != nil {
		return fmt.Errorf("delete status type: %w", err)
	}
	return nil
}
