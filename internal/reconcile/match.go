package reconcile

import (
	"sort"

	"hemlist/engine/internal/list"
	"hemlist/engine/internal/util"
)

type pair struct {
	item    list.Item
	foreign ForeignItem
}

// match greedily pairs canonical items with foreign rows: first on name
// and checked state, then name only. The strict pass first keeps two
// same-named rows with different checked states from cross-assigning
// (two rows with identical name and checked state remain inherently
// ambiguous; that is a known limitation of name-based matching, not
// something this code tries to resolve).
//
// Returns the pairs, the unmatched foreign rows sorted by ascending
// position, and the unmatched canonical items.
func match(items []list.Item, foreign []ForeignItem) (pairs []pair, extraForeign []ForeignItem, missing []list.Item) {
	usedForeign := make([]bool, len(foreign))
	matchedItem := make([]int, len(items)) // index into foreign, -1 if none
	for i := range matchedItem {
		matchedItem[i] = -1
	}

	for i, item := range items {
		for j, f := range foreign {
			if !usedForeign[j] && f.Name == item.Name && f.Checked == item.Checked {
				usedForeign[j] = true
				matchedItem[i] = j
				break
			}
		}
	}
	for i, item := range items {
		if matchedItem[i] >= 0 {
			continue
		}
		for j, f := range foreign {
			if !usedForeign[j] && f.Name == item.Name {
				usedForeign[j] = true
				matchedItem[i] = j
				break
			}
		}
	}

	for i, item := range items {
		if j := matchedItem[i]; j >= 0 {
			pairs = append(pairs, pair{item: item, foreign: foreign[j]})
		} else {
			missing = append(missing, item)
		}
	}
	for j, f := range foreign {
		if !usedForeign[j] {
			extraForeign = append(extraForeign, f)
		}
	}
	sort.Slice(extraForeign, func(a, b int) bool {
		return extraForeign[a].Position < extraForeign[b].Position
	})
	return pairs, extraForeign, missing
}

// assignIDs maps foreign rows onto known canonical items so the diff
// engine can synthesize events with canonical ids. Rows are matched
// against the last observed state first, then against the target: a row
// the shadow has never seen may be a half-applied addition of our own,
// and reusing the target's id keeps a retried report idempotent at the
// hub. Only rows matching neither are minted fresh ids, which Compare
// then turns into adds.
func assignIDs(prev, target []list.Item, foreign []ForeignItem) []list.Item {
	pairs, extra, _ := match(prev, foreign)

	assigned := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		assigned[p.item.ID] = true
	}
	var pool []list.Item
	for _, item := range target {
		if !assigned[item.ID] {
			pool = append(pool, item)
		}
	}
	targetPairs, unknown, _ := match(pool, extra)
	pairs = append(pairs, targetPairs...)

	out := make([]list.Item, 0, len(foreign))
	for _, p := range pairs {
		out = append(out, list.Item{
			ID:       p.item.ID,
			Name:     p.foreign.Name,
			Checked:  p.foreign.Checked,
			Position: p.foreign.Position,
		})
	}
	for _, f := range unknown {
		out = append(out, list.Item{
			ID:       util.NewID("item"),
			Name:     f.Name,
			Checked:  f.Checked,
			Position: f.Position,
		})
	}
	return out
}
