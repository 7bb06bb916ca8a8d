package stores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

const sampleConfig = `# THIS IS AN AUTO-GENERATED FILE: DO NOT EDIT.
SERIAL true
BAUD 115200
NAME devkit
`

// setupTestStore creates a file-backed SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: MemoryPath,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.HealthCheck(ctx); err == nil {
		t.Error("expected health check to fail before Init")
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	// A second run has nothing to apply.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to re-run migrations: %v", err)
	}
	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("expected an error for an empty path")
	}
}

// TestStoreMigrations tests that every table exists after migrating
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, table := range []string{"snapshots", "restores"} {
		var count int
		if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

func TestNewSnapshot(t *testing.T) {
	snap := NewSnapshot("/src/configs.in", sampleConfig, "before release")

	if snap.Items != 3 {
		t.Errorf("expected 3 entries, got %d", snap.Items)
	}
	if snap.Checksum != Checksum(sampleConfig) || len(snap.Checksum) != 64 {
		t.Errorf("unexpected checksum %q", snap.Checksum)
	}
	if len(snap.ShortID()) != 8 || snap.ID[:8] != snap.ShortID() {
		t.Errorf("unexpected short id %q for %q", snap.ShortID(), snap.ID)
	}
	if other := NewSnapshot("/src/configs.in", sampleConfig, ""); other.ID == snap.ID {
		t.Error("expected distinct ids")
	}
}

// TestSnapshotCRUD tests save, get, list and delete
func TestSnapshotCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := NewSnapshot("/src/configs.in", sampleConfig, "first")
	second := NewSnapshot("/src/configs.in", sampleConfig+"EXTRA true\n", "second")
	other := NewSnapshot("/other/configs.in", sampleConfig, "")
	for _, s := range []*Snapshot{first, second, other} {
		if err := store.SaveSnapshot(ctx, s); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
	}

	// Get by full id and by prefix
	got, err := store.GetSnapshot(ctx, first.ID)
	if err != nil {
		t.Fatalf("failed to get snapshot: %v", err)
	}
	if got.Content != sampleConfig || got.Note != "first" || got.Items != 3 {
		t.Errorf("unexpected snapshot %+v", got)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", first.CreatedAt, got.CreatedAt)
	}
	if got, err := store.GetSnapshot(ctx, second.ShortID()); err != nil || got.ID != second.ID {
		t.Errorf("expected prefix lookup to find %s, got %v, %v", second.ID, got, err)
	}
	if _, err := store.GetSnapshot(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetSnapshot(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for an empty id, got %v", err)
	}

	// Latest
	latest, err := store.LatestSnapshot(ctx, "/src/configs.in")
	if err != nil || latest.ID != second.ID {
		t.Errorf("expected latest %s, got %v, %v", second.ID, latest, err)
	}
	if _, err := store.LatestSnapshot(ctx, "/none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// List
	list, err := store.ListSnapshots(ctx, "/src/configs.in", 0, 0)
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("expected [second first], got %d snapshots", len(list))
	}
	all, err := store.ListSnapshots(ctx, "", 2, 0)
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	if len(all) != 2 || all[0].ID != other.ID {
		t.Errorf("expected the two newest snapshots, got %d", len(all))
	}
	page, err := store.ListSnapshots(ctx, "", 2, 2)
	if err != nil || len(page) != 1 || page[0].ID != first.ID {
		t.Errorf("expected the oldest snapshot on the second page, got %v, %v", page, err)
	}

	// Delete
	if err := store.DeleteSnapshot(ctx, first.ID); err != nil {
		t.Fatalf("failed to delete snapshot: %v", err)
	}
	if err := store.DeleteSnapshot(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPrune(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		s := NewSnapshot("/src/configs.in", sampleConfig, "")
		if err := store.SaveSnapshot(ctx, s); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		ids = append(ids, s.ID)
	}
	if err := store.SaveSnapshot(ctx, NewSnapshot("/other/configs.in", sampleConfig, "")); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}

	removed, err := store.Prune(ctx, "/src/configs.in", 2)
	if err != nil {
		t.Fatalf("failed to prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 removed, got %d", removed)
	}

	left, _ := store.ListSnapshots(ctx, "/src/configs.in", 0, 0)
	if len(left) != 2 || left[0].ID != ids[4] || left[1].ID != ids[3] {
		t.Errorf("expected the two newest snapshots to survive, got %d", len(left))
	}
	others, _ := store.ListSnapshots(ctx, "/other/configs.in", 0, 0)
	if len(others) != 1 {
		t.Errorf("expected other sources untouched, got %d", len(others))
	}

	if _, err := store.Prune(ctx, "/src/configs.in", -1); err == nil {
		t.Error("expected an error for a negative keep")
	}
}

func TestRestores(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	snap := NewSnapshot("/src/configs.in", sampleConfig, "")
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("failed to save snapshot: %v", err)
	}
	if err := store.RecordRestore(ctx, snap.ID, "/src/.old.config"); err != nil {
		t.Fatalf("failed to record restore: %v", err)
	}
	if err := store.RecordRestore(ctx, "missing", "/src/.old.config"); err == nil {
		t.Error("expected a foreign key error for an unknown snapshot")
	}

	restores, err := store.ListRestores(ctx, snap.ID)
	if err != nil {
		t.Fatalf("failed to list restores: %v", err)
	}
	if len(restores) != 1 || restores[0].Target != "/src/.old.config" {
		t.Fatalf("unexpected restores %+v", restores)
	}

	// Deleting the snapshot cascades to its restores.
	if err := store.DeleteSnapshot(ctx, snap.ID); err != nil {
		t.Fatalf("failed to delete snapshot: %v", err)
	}
	restores, _ = store.ListRestores(ctx, snap.ID)
	if len(restores) != 0 {
		t.Errorf("expected restores to be deleted, got %d", len(restores))
	}
}
