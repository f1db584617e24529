package list

import (
	"reflect"
	"testing"
)

func TestWireRoundTrip(t *testing.T) {
	events := []Event{
		AddItem{ID: "a", Name: "Ost"},
		SetItemChecked{ID: "a", Checked: true},
		RenameItem{ID: "a", NewName: "Prästost"},
		MoveItem{ID: "a", FromPosition: 2, ToPosition: 0},
		DeleteItem{ID: "a"},
		ClearCheckedItems{},
	}

	data, err := MarshalEvents(events)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	decoded, err := UnmarshalEvents(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(events, decoded) {
		t.Errorf("expected %v, got %v", events, decoded)
	}
}

func TestWireSetCheckedFalseSurvives(t *testing.T) {
	data, err := MarshalEvents([]Event{SetItemChecked{ID: "a", Checked: false}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	decoded, err := UnmarshalEvents(data)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded[0] != (SetItemChecked{ID: "a", Checked: false}) {
		t.Errorf("checked=false lost on the wire: %v", decoded[0])
	}
}

func TestWireRejectsMalformedPayloads(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"unknown type", `[{"type":"EXPLODE_LIST"}]`},
		{"add without id", `[{"type":"ADD_ITEM","name":"Ost"}]`},
		{"checked without flag", `[{"type":"SET_ITEM_CHECKED","id":"a"}]`},
		{"move without positions", `[{"type":"MOVE_ITEM","id":"a"}]`},
		{"not an array", `{"type":"ADD_ITEM","id":"a"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := UnmarshalEvents([]byte(tc.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
