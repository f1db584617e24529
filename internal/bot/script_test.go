package bot

import (
	"strings"
	"testing"
)

func TestJSStringEscapes(t *testing.T) {
	cases := map[string]string{
		"ul li":           `"ul li"`,
		`a[name="x"]`:     `"a[name=\"x\"]"`,
		"line\nbreak":     `"line\nbreak"`,
		"input[data-add]": `"input[data-add]"`,
	}
	for in, want := range cases {
		if got := jsString(in); got != want {
			t.Errorf("jsString(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestScrapeScriptUsesSelectors(t *testing.T) {
	sel := Selectors{Row: "ul#list li", Name: ".item-name", Checkbox: "input.check"}
	script := scrapeScript(sel)
	for _, fragment := range []string{`"ul#list li"`, `".item-name"`, `"input.check"`} {
		if !strings.Contains(script, fragment) {
			t.Errorf("script missing %s:\n%s", fragment, script)
		}
	}
}

func TestClickScriptTargetsPosition(t *testing.T) {
	sel := DefaultSelectors()
	script := clickScript(sel, 3, sel.DeleteButton)
	if !strings.Contains(script, "[3]") {
		t.Errorf("script should index row 3:\n%s", script)
	}
	if !strings.Contains(script, "return false") {
		t.Error("script should report missing rows")
	}
}

func TestSetCheckedScriptIsConditional(t *testing.T) {
	sel := DefaultSelectors()
	script := setCheckedScript(sel, 0, true)
	if !strings.Contains(script, "box.checked !== true") {
		t.Errorf("script should compare current state:\n%s", script)
	}
}
