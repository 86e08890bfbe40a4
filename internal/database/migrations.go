package database

// Migration represents a database migration
type Migration struct {
	Version string
	Up      string
	Down    string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: "001_init",
		Up: `
-- Users table (admin accounts for the management API)
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    is_active BOOLEAN DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_users_username ON users(username);

-- Tracking sessions (one per table/wheel being tracked)
CREATE TABLE sessions (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    table_name TEXT NOT NULL DEFAULT '',
    mode TEXT NOT NULL DEFAULT '3x3',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Recorded spins with the prediction made and the observed outcome
CREATE TABLE spins (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    wheel_times TEXT NOT NULL,
    ball_times TEXT NOT NULL,
    wheel_marks INTEGER NOT NULL DEFAULT 0,
    ball_marks INTEGER NOT NULL DEFAULT 0,
    direction TEXT NOT NULL DEFAULT '',
    left_prediction INTEGER NOT NULL,
    right_prediction INTEGER NOT NULL,
    outcome INTEGER,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX idx_spins_session ON spins(session_id);
CREATE INDEX idx_spins_created ON spins(created_at);

-- Periodic hit-rate rollups per session
CREATE TABLE session_stats (
    session_id TEXT PRIMARY KEY,
    spin_count INTEGER NOT NULL DEFAULT 0,
    scored_count INTEGER NOT NULL DEFAULT 0,
    exact_hits INTEGER NOT NULL DEFAULT 0,
    neighbour_hits INTEGER NOT NULL DEFAULT 0,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
`,
		Down: `
DROP TABLE session_stats;
DROP TABLE spins;
DROP TABLE sessions;
DROP TABLE users;
`,
	},
	{
		Version: "002_backups",
		Up: `
-- Completed backup records
CREATE TABLE backups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL,
    destination_type TEXT NOT NULL,
    destination_path TEXT NOT NULL,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    created_by TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX idx_backups_created ON backups(created_at);

-- Backup schedules (cron expressions)
CREATE TABLE backup_schedules (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    schedule TEXT NOT NULL,
    destination_type TEXT NOT NULL DEFAULT 'local',
    destination_path TEXT NOT NULL DEFAULT '',
    destination_config TEXT NOT NULL DEFAULT '{}',
    retention_count INTEGER NOT NULL DEFAULT 0,
    enabled BOOLEAN DEFAULT 1,
    last_run DATETIME,
    next_run DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`,
		Down: `
DROP TABLE backup_schedules;
DROP TABLE backups;
`,
	},
}
