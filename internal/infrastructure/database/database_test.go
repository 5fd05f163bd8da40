package database

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Config{
		Path:        filepath.Join(t.TempDir(), "state.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	// device_state must exist and accept an upsert round-trip.
	if _, err := db.ExecContext(ctx,
		`INSERT INTO device_state (name, state) VALUES (?, ?)`,
		"south-office", []byte(`{"schema_version":1}`)); err != nil {
		t.Fatalf("insert into device_state: %v", err)
	}

	var blob []byte
	row := db.QueryRowContext(ctx, `SELECT state FROM device_state WHERE name = ?`, "south-office")
	if err := row.Scan(&blob); err != nil {
		t.Fatalf("select from device_state: %v", err)
	}
	if string(blob) != `{"schema_version":1}` {
		t.Errorf("state round-trip = %q", blob)
	}

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	if err == nil {
		t.Fatal("Open() with empty path should fail")
	}
}

func TestOpenIdempotentSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	db1, err := Open(ctx, Config{Path: path, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	db1.Close()

	db2, err := Open(ctx, Config{Path: path, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	db2.Close()
}
