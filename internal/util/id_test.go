package util

import (
	"strings"
	"testing"
)

func TestNewIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewID("item")
		if !strings.HasPrefix(id, "item_") {
			t.Fatalf("missing prefix: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
	}
}

func TestNewIDNoPrefix(t *testing.T) {
	id := NewID("")
	if strings.Contains(id, "_") {
		t.Errorf("unexpected separator in %s", id)
	}
	if len(id) != 26 {
		t.Errorf("expected 26-char ulid, got %d (%s)", len(id), id)
	}
}
