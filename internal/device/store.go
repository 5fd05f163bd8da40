package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shadowline/shadowline-core/internal/infrastructure/database"
)

// Store persists device state records in the SQLite database.
//
// The blobs are opaque here: each device serialises and validates its
// own versioned record. The save/load contract is a plain byte
// round-trip keyed by device name.
type Store struct {
	db *database.DB
}

// NewStore creates a Store over an opened database.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Save upserts the state record for a device. A nil blob is ignored;
// the device had nothing to persist.
func (s *Store) Save(ctx context.Context, name string, blob []byte) error {
	if blob == nil {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_state (name, state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			state      = excluded.state,
			updated_at = excluded.updated_at`,
		name, blob)
	if err != nil {
		return fmt.Errorf("saving state for %s: %w", name, err)
	}
	return nil
}

// Load returns the state record for a device, or ErrStateNotFound if
// the device has never been saved.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var blob []byte
	row := s.db.QueryRowContext(ctx, `SELECT state FROM device_state WHERE name = ?`, name)
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, name)
		}
		return nil, fmt.Errorf("loading state for %s: %w", name, err)
	}
	return blob, nil
}
