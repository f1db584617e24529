package list

// Store is an in-memory ordered collection mutated only through validated
// events. It is not synchronized: each Store is owned by exactly one actor
// (client, hub), which serializes access.
type Store struct {
	items    []Item
	onChange func(items []Item)
}

func NewStore() *Store {
	return &Store{}
}

// OnChange registers the single change subscriber. It fires once per
// applied batch, not once per event.
func (s *Store) OnChange(fn func(items []Item)) {
	s.onChange = fn
}

// Items returns a position-ordered copy of the current state.
func (s *Store) Items() []Item {
	return CloneItems(s.items)
}

func (s *Store) Len() int {
	return len(s.items)
}

// Apply validates and applies a single event. It reports whether the
// event was applied; moot events return false.
func (s *Store) Apply(e Event) bool {
	applied := s.applyOne(e)
	if applied {
		s.notify()
	}
	return applied
}

// ApplyAll applies a batch, skipping moot events without aborting, and
// returns the events that were actually applied. One change notification
// fires if anything applied.
func (s *Store) ApplyAll(events []Event) []Event {
	var applied []Event
	for _, e := range events {
		if s.applyOne(e) {
			applied = append(applied, e)
		}
	}
	if len(applied) > 0 {
		s.notify()
	}
	return applied
}

// Replace swaps the whole collection for an authoritative snapshot and
// always notifies.
func (s *Store) Replace(items []Item) {
	s.items = CloneItems(items)
	s.notify()
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange(s.Items())
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) nextPosition() int {
	next := 0
	for i := range s.items {
		if s.items[i].Position >= next {
			next = s.items[i].Position + 1
		}
	}
	return next
}

func (s *Store) applyOne(e Event) bool {
	switch ev := e.(type) {
	case AddItem:
		if ev.ID == "" || s.indexOf(ev.ID) >= 0 {
			return false
		}
		s.items = append(s.items, Item{
			ID:       ev.ID,
			Name:     ev.Name,
			Position: s.nextPosition(),
		})
		return true
	case DeleteItem:
		i := s.indexOf(ev.ID)
		if i < 0 {
			return false
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		return true
	case SetItemChecked:
		i := s.indexOf(ev.ID)
		if i < 0 {
			return false
		}
		s.items[i].Checked = ev.Checked
		return true
	case RenameItem:
		i := s.indexOf(ev.ID)
		if i < 0 {
			return false
		}
		s.items[i].Name = ev.NewName
		return true
	case MoveItem:
		return s.move(ev)
	case ClearCheckedItems:
		kept := s.items[:0]
		removed := false
		for _, item := range s.items {
			if item.Checked {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		s.items = kept
		return removed
	}
	return false
}

// move shifts every item whose position lies strictly between the bounds
// by one and places the moved item at the target position. Items outside
// the affected range keep their positions.
func (s *Store) move(ev MoveItem) bool {
	i := s.indexOf(ev.ID)
	// A move to the same position changes nothing; reporting it applied
	// would fire a change notification for an unchanged list.
	if i < 0 || ev.FromPosition == ev.ToPosition {
		return false
	}
	for j := range s.items {
		if s.items[j].ID == ev.ID {
			continue
		}
		p := s.items[j].Position
		if ev.FromPosition < ev.ToPosition {
			if p > ev.FromPosition && p <= ev.ToPosition {
				s.items[j].Position = p - 1
			}
		} else {
			if p >= ev.ToPosition && p < ev.FromPosition {
				s.items[j].Position = p + 1
			}
		}
	}
	s.items[i].Position = ev.ToPosition
	return true
}

// ApplyToItems applies events to a snapshot without a Store or its
// notifications. Used for shadow copies and reconciler working copies.
func ApplyToItems(items []Item, events []Event) []Item {
	scratch := &Store{items: CloneItems(items)}
	for _, e := range events {
		scratch.applyOne(e)
	}
	return scratch.Items()
}
