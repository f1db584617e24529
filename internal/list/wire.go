package list

import (
	"encoding/json"
	"fmt"
)

// Wire format: each event is a JSON envelope with a type tag. A payload
// that fails validation is rejected as a whole; the caller keeps its
// previous state.

const (
	typeAddItem           = "ADD_ITEM"
	typeDeleteItem        = "DELETE_ITEM"
	typeSetItemChecked    = "SET_ITEM_CHECKED"
	typeRenameItem        = "RENAME_ITEM"
	typeMoveItem          = "MOVE_ITEM"
	typeClearCheckedItems = "CLEAR_CHECKED_ITEMS"
)

type envelope struct {
	Type         string `json:"type"`
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	NewName      string `json:"newName,omitempty"`
	Checked      *bool  `json:"checked,omitempty"`
	FromPosition *int   `json:"fromPosition,omitempty"`
	ToPosition   *int   `json:"toPosition,omitempty"`
}

// MarshalEvents encodes a batch as a JSON array of envelopes.
func MarshalEvents(events []Event) ([]byte, error) {
	envelopes := make([]envelope, 0, len(events))
	for _, e := range events {
		env, err := toEnvelope(e)
		if err != nil {
			return nil, err
		}
		envelopes = append(envelopes, env)
	}
	return json.Marshal(envelopes)
}

// UnmarshalEvents decodes a batch, rejecting unknown types and envelopes
// missing required fields.
func UnmarshalEvents(data []byte) ([]Event, error) {
	var envelopes []envelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	events := make([]Event, 0, len(envelopes))
	for _, env := range envelopes {
		e, err := fromEnvelope(env)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func toEnvelope(e Event) (envelope, error) {
	switch ev := e.(type) {
	case AddItem:
		return envelope{Type: typeAddItem, ID: ev.ID, Name: ev.Name}, nil
	case DeleteItem:
		return envelope{Type: typeDeleteItem, ID: ev.ID}, nil
	case SetItemChecked:
		checked := ev.Checked
		return envelope{Type: typeSetItemChecked, ID: ev.ID, Checked: &checked}, nil
	case RenameItem:
		return envelope{Type: typeRenameItem, ID: ev.ID, NewName: ev.NewName}, nil
	case MoveItem:
		from, to := ev.FromPosition, ev.ToPosition
		return envelope{Type: typeMoveItem, ID: ev.ID, FromPosition: &from, ToPosition: &to}, nil
	case ClearCheckedItems:
		return envelope{Type: typeClearCheckedItems}, nil
	}
	return envelope{}, fmt.Errorf("unknown event %T", e)
}

func fromEnvelope(env envelope) (Event, error) {
	switch env.Type {
	case typeAddItem:
		if env.ID == "" {
			return nil, fmt.Errorf("%s: missing id", env.Type)
		}
		return AddItem{ID: env.ID, Name: env.Name}, nil
	case typeDeleteItem:
		if env.ID == "" {
			return nil, fmt.Errorf("%s: missing id", env.Type)
		}
		return DeleteItem{ID: env.ID}, nil
	case typeSetItemChecked:
		if env.ID == "" || env.Checked == nil {
			return nil, fmt.Errorf("%s: missing id or checked", env.Type)
		}
		return SetItemChecked{ID: env.ID, Checked: *env.Checked}, nil
	case typeRenameItem:
		if env.ID == "" {
			return nil, fmt.Errorf("%s: missing id", env.Type)
		}
		return RenameItem{ID: env.ID, NewName: env.NewName}, nil
	case typeMoveItem:
		if env.ID == "" || env.FromPosition == nil || env.ToPosition == nil {
			return nil, fmt.Errorf("%s: missing id or positions", env.Type)
		}
		return MoveItem{ID: env.ID, FromPosition: *env.FromPosition, ToPosition: *env.ToPosition}, nil
	case typeClearCheckedItems:
		return ClearCheckedItems{}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", env.Type)
}
