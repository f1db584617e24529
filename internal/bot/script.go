package bot

import (
	"encoding/json"
	"fmt"
)

// jsString embeds a Go string in generated JavaScript. JSON encoding is a
// valid JS string literal and handles quoting and unicode escapes.
func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// scrapeScript reads every row as {name, checked} in display order.
func scrapeScript(sel Selectors) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(row => {
		const nameEl = row.querySelector(%s);
		const box = row.querySelector(%s);
		return {
			name: nameEl ? nameEl.textContent.trim() : row.textContent.trim(),
			checked: box ? box.checked : false,
		};
	})`, jsString(sel.Row), jsString(sel.Name), jsString(sel.Checkbox))
}

// clickScript clicks a child element of the row at position. Evaluates to
// false when the row or child is missing, so stale positions surface as
// errors instead of silently clicking nothing.
func clickScript(sel Selectors, position int, child string) string {
	return fmt.Sprintf(`(() => {
		const row = document.querySelectorAll(%s)[%d];
		if (!row) return false;
		const el = row.querySelector(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, jsString(sel.Row), position, jsString(child))
}

// setCheckedScript clicks the row's checkbox only when its state differs
// from the desired one, so repeated application is harmless.
func setCheckedScript(sel Selectors, position int, checked bool) string {
	return fmt.Sprintf(`(() => {
		const row = document.querySelectorAll(%s)[%d];
		if (!row) return false;
		const box = row.querySelector(%s);
		if (!box) return false;
		if (box.checked !== %t) box.click();
		return true;
	})()`, jsString(sel.Row), position, jsString(sel.Checkbox), checked)
}
