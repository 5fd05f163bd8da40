package device

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shadowline/shadowline-core/internal/infrastructure/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "state.db"),
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	blob := []byte(`{"schema_version":1,"enabled":true}`)
	if err := s.Save(ctx, "south-office", blob); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(ctx, "south-office")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != string(blob) {
		t.Errorf("Load() = %q, want %q", got, blob)
	}

	// Overwrite replaces the record.
	blob2 := []byte(`{"schema_version":1,"enabled":false}`)
	if err := s.Save(ctx, "south-office", blob2); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, err = s.Load(ctx, "south-office")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if string(got) != string(blob2) {
		t.Errorf("Load() after overwrite = %q, want %q", got, blob2)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "never-saved")
	if !errors.Is(err, ErrStateNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrStateNotFound", err)
	}
}

func TestStoreSaveNilIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Save(ctx, "stateless", nil); err != nil {
		t.Fatalf("Save(nil) error = %v", err)
	}
	if _, err := s.Load(ctx, "stateless"); !errors.Is(err, ErrStateNotFound) {
		t.Errorf("nil blob must not create a record, Load error = %v", err)
	}
}
