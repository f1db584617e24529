package list

// Event is a single mutation intent. The union is closed: only the six
// types below implement it, and Store.applyOne switches over all of them.
//
// Validation happens at apply time against the target store. An event
// whose precondition no longer holds (duplicate add, missing id) is moot:
// it is skipped without error, which is what makes at-least-once
// redelivery safe.
type Event interface {
	isEvent()
}

// AddItem inserts a new unchecked item at the end of the list.
// Moot if the id already exists.
type AddItem struct {
	ID   string
	Name string
}

// DeleteItem removes an item. Moot if the id is absent.
type DeleteItem struct {
	ID string
}

// SetItemChecked sets the checked flag. Moot if the id is absent.
type SetItemChecked struct {
	ID      string
	Checked bool
}

// RenameItem changes an item's name. Moot if the id is absent.
type RenameItem struct {
	ID      string
	NewName string
}

// MoveItem moves an item between positions, shifting every other item
// strictly between the bounds by one. Moot if the id is absent.
type MoveItem struct {
	ID           string
	FromPosition int
	ToPosition   int
}

// ClearCheckedItems removes every checked item. Moot if none are checked.
type ClearCheckedItems struct{}

func (AddItem) isEvent()           {}
func (DeleteItem) isEvent()        {}
func (SetItemChecked) isEvent()    {}
func (RenameItem) isEvent()        {}
func (MoveItem) isEvent()          {}
func (ClearCheckedItems) isEvent() {}
