package list

// Compare computes the events that transform oldList into newList. It is
// pure and deterministic: new items are walked in order, then removals in
// oldList order. Position differences are not diffed here; callers that
// track ordering exchange MoveItem events directly.
//
// An added item that is checked yields AddItem followed by SetItemChecked,
// since AddItem implies unchecked. For an existing item the checked change
// is emitted before the rename; the two are independent and the order is
// fixed only for determinism.
func Compare(oldList, newList []Item) []Event {
	oldByID := make(map[string]Item, len(oldList))
	for _, item := range oldList {
		oldByID[item.ID] = item
	}
	newIDs := make(map[string]bool, len(newList))

	var events []Event
	for _, item := range newList {
		newIDs[item.ID] = true
		prev, ok := oldByID[item.ID]
		if !ok {
			events = append(events, AddItem{ID: item.ID, Name: item.Name})
			if item.Checked {
				events = append(events, SetItemChecked{ID: item.ID, Checked: true})
			}
			continue
		}
		if prev.Checked != item.Checked {
			events = append(events, SetItemChecked{ID: item.ID, Checked: item.Checked})
		}
		if prev.Name != item.Name {
			events = append(events, RenameItem{ID: item.ID, NewName: item.Name})
		}
	}
	for _, item := range oldList {
		if !newIDs[item.ID] {
			events = append(events, DeleteItem{ID: item.ID})
		}
	}
	return events
}
