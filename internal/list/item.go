// Package list holds the shared list model: items, the mutation event
// union, the validated in-memory store, and the snapshot diff.
package list

import "sort"

// Item is one list entry. Identity is ID; Position is a dense ordering
// key (gaps are tolerated, order is defined by sorting on it).
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Checked  bool   `json:"checked"`
	Position int    `json:"position"`
}

// CloneItems returns a copy sorted by position, ties broken by id so the
// result is deterministic.
func CloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SameContents reports whether two snapshots hold the same items by value,
// ignoring order of the input slices.
func SameContents(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[string]Item, len(a))
	for _, item := range a {
		byID[item.ID] = item
	}
	for _, item := range b {
		other, ok := byID[item.ID]
		if !ok || other != item {
			return false
		}
	}
	return true
}
