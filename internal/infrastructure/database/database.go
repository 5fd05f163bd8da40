package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// SQLite driver registers itself as "sqlite3".
	_ "github.com/mattn/go-sqlite3"
)

// Config holds database connection settings.
type Config struct {
	// Path is the SQLite database file path.
	Path string

	// WALMode enables write-ahead logging for better concurrency.
	WALMode bool

	// BusyTimeout is how long (in seconds) a locked database is retried.
	BusyTimeout int
}

// DB wraps the SQL database handle for the device-state store.
//
// Thread Safety:
//   - database/sql connection pooling makes all methods safe for
//     concurrent use.
type DB struct {
	*sql.DB
	path string
}

// schema is applied at Open time. The store is a single key/value table:
// one versioned JSON state record per device, keyed by device name.
const schema = `
CREATE TABLE IF NOT EXISTS device_state (
    name       TEXT PRIMARY KEY,
    state      BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Open opens the SQLite database and ensures the schema exists.
//
// The parent directory is created if missing. WAL mode and the busy
// timeout are applied through the DSN so every pooled connection gets
// them.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := cfg.Path + "?_busy_timeout=" + fmt.Sprint(cfg.BusyTimeout*1000)
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single writer keeps SQLite happy; reads still share the pool.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{DB: sqlDB, path: cfg.Path}, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the database is reachable.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	return nil
}
