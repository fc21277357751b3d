// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Mirrors the users / healthMetrics / statusTypes document layout as tables.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		avatar TEXT,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accounts (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS health_metrics (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		timestamp_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS status_types (
		user_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		thresholds TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (user_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_user_type_ts ON health_metrics(user_id, type, timestamp_ms DESC);
	CREATE INDEX IF NOT EXISTS idx_status_types_user ON status_types(user_id, position);
	`

	_, err := d.db.Exec(schema)
	return err
}
