package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Athletes who granted access, with their filter settings and counters
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			strava_id INTEGER NOT NULL UNIQUE,
			username TEXT,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			token_expiry INTEGER NOT NULL,
			run_threshold INTEGER NOT NULL DEFAULT 3600,
			ride_threshold INTEGER NOT NULL DEFAULT 7200,
			walk_threshold INTEGER NOT NULL DEFAULT 10800,
			title_generation INTEGER NOT NULL DEFAULT 1,
			activities_processed INTEGER NOT NULL DEFAULT 0,
			activities_hidden INTEGER NOT NULL DEFAULT 0,
			activities_titled INTEGER NOT NULL DEFAULT 0,
			last_activity_at INTEGER,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// One row per processed activity
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			strava_activity_id INTEGER NOT NULL,
			activity_type TEXT NOT NULL,
			activity_name TEXT NOT NULL,
			generated_title TEXT NOT NULL,
			elapsed_time INTEGER NOT NULL,
			distance REAL NOT NULL,
			was_hidden INTEGER NOT NULL DEFAULT 0,
			was_titled INTEGER NOT NULL DEFAULT 0,
			processed_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activity_logs_user ON activity_logs(user_id, processed_at)`,

		// Raw webhook deliveries, kept for auditing
		`CREATE TABLE IF NOT EXISTS webhook_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			object_id INTEGER NOT NULL,
			object_type TEXT NOT NULL,
			aspect_type TEXT NOT NULL,
			owner_id INTEGER NOT NULL,
			raw_payload TEXT NOT NULL,
			received_at INTEGER NOT NULL
		)`,

		// Activities waiting for the worker
		`CREATE TABLE IF NOT EXISTS activity_queue (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			activity_id INTEGER NOT NULL,
			owner_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			available_at INTEGER NOT NULL DEFAULT 0,
			enqueued_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activity_queue_status ON activity_queue(status, id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
