package store

// schema is applied in order on Open. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id                  TEXT PRIMARY KEY,
		kind                TEXT NOT NULL,
		sources             TEXT NOT NULL,
		config_file         TEXT,
		detected_technology TEXT NOT NULL,
		records_read        INTEGER NOT NULL,
		truncated           INTEGER NOT NULL,
		measurement_count   INTEGER NOT NULL,
		event_count         INTEGER NOT NULL,
		signaling_count     INTEGER NOT NULL,
		processed_at        TEXT NOT NULL,
		duration_ms         INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS measurements (
		session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq             INTEGER NOT NULL,
		time            TEXT NOT NULL,
		lat             REAL NOT NULL,
		lng             REAL NOT NULL,
		technology      TEXT NOT NULL,
		serving_level   REAL,
		serving_quality REAL,
		serving_pci     INTEGER,
		serving_freq    REAL,
		band            TEXT,
		cell_identity   TEXT,
		neighbors       TEXT,
		extra_fields    TEXT,
		PRIMARY KEY (session_id, seq)
	);`,
	`CREATE TABLE IF NOT EXISTS events (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		time       TEXT NOT NULL,
		kind       TEXT NOT NULL,
		message    TEXT NOT NULL,
		lat        REAL,
		lng        REAL,
		PRIMARY KEY (session_id, seq)
	);`,
	`CREATE TABLE IF NOT EXISTS signaling (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		time       TEXT NOT NULL,
		message    TEXT NOT NULL,
		raw_line   TEXT NOT NULL,
		lat        REAL,
		lng        REAL,
		PRIMARY KEY (session_id, seq)
	);`,
	`CREATE INDEX IF NOT EXISTS measurements_position ON measurements(lat, lng);`,
}
