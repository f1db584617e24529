package store

import (
	"context"
	"os"
	"testing"

	"hemlist/engine/internal/list"
)

// Needs a reachable Postgres; point TEST_DATABASE_URL at one to run.
func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := s.Save(ctx, nil); err != nil {
		t.Fatalf("reset items: %v", err)
	}
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved := []list.Item{
		{ID: "item_b", Name: "Smör", Checked: true, Position: 0},
		{ID: "item_a", Name: "Ost", Position: 1},
	}
	if err := s.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 items, got %d", len(loaded))
	}
	if loaded[0].ID != "item_b" || loaded[1].ID != "item_a" {
		t.Errorf("expected position order, got %q then %q", loaded[0].ID, loaded[1].ID)
	}
	if !loaded[0].Checked || loaded[0].Name != "Smör" {
		t.Errorf("item_b fields not preserved: %+v", loaded[0])
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, []list.Item{{ID: "item_a", Name: "Ost", Position: 0}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save(ctx, []list.Item{{ID: "item_b", Name: "Mjölk", Position: 0}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "item_b" {
		t.Fatalf("expected only item_b to survive, got %+v", loaded)
	}
}

func TestLoadEmptyTable(t *testing.T) {
	s := openTestStore(t)

	loaded, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty snapshot, got %d items", len(loaded))
	}
}
