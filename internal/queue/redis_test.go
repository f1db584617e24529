package queue

import (
	"context"
	"reflect"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"hemlist/engine/internal/list"
)

func setupTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+s.Addr(), "client-1")
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRedisLoadEmpty(t *testing.T) {
	store := setupTestRedis(t)
	events, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty queue, got %v", events)
	}
}

func TestRedisSaveAndLoad(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	events := []list.Event{
		list.AddItem{ID: "a", Name: "Ost"},
		list.SetItemChecked{ID: "a", Checked: true},
		list.MoveItem{ID: "a", FromPosition: 1, ToPosition: 0},
	}
	if err := store.Save(ctx, events); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(events, loaded) {
		t.Errorf("expected %v, got %v", events, loaded)
	}
}

func TestRedisSaveEmptyClearsKey(t *testing.T) {
	store := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, []list.Event{list.DeleteItem{ID: "a"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, nil); err != nil {
		t.Fatalf("Save empty failed: %v", err)
	}
	events, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected cleared queue, got %v", events)
	}
}

func TestRedisOwnerIsolation(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()

	a, err := NewRedisStore("redis://"+s.Addr(), "client-a")
	if err != nil {
		t.Fatalf("store a: %v", err)
	}
	defer a.Close()
	b, err := NewRedisStore("redis://"+s.Addr(), "client-b")
	if err != nil {
		t.Fatalf("store b: %v", err)
	}
	defer b.Close()

	if err := a.Save(ctx, []list.Event{list.AddItem{ID: "a", Name: "Ost"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	events, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("owner keys leaked: %v", events)
	}
}
