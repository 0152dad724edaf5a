package ui

import (
	"fmt"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"

	"github.com/Makepad-fr/tadasync/internal/model"
)

// EmptyState is shown in place of an empty list.
const EmptyState = "No todos yet."

// ShortIDLen is the shortest id prefix listings show. Commands accept any
// unique prefix.
const ShortIDLen = 8

// ShortIDs maps every id in items to the shortest prefix, at least
// ShortIDLen long, that no other id in items starts with. An id that is a
// prefix of another is shown whole; commands match it exactly.
func ShortIDs(items []model.Todo) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		n := min(ShortIDLen, len(it.ID))
		for n < len(it.ID) && sharedPrefix(items, it.ID, it.ID[:n]) {
			n++
		}
		out[it.ID] = it.ID[:n]
	}
	return out
}

func sharedPrefix(items []model.Todo, id, prefix string) bool {
	for _, o := range items {
		if o.ID != id && strings.HasPrefix(o.ID, prefix) {
			return true
		}
	}
	return false
}

// Header is the title line with live counts, followed by the progress bar.
func Header(items []model.Todo) []string {
	t := Current()
	d, p := model.Count(items)
	return []string{
		fmt.Sprintf("%s  %s %d  %s %d  %s %d",
			C(t.Title, "Todos"),
			C(t.Success, t.SymDone), d,
			C(t.Pending, t.SymUnchecked), p,
			C(t.Accent, "Total"), len(items),
		),
		C(t.Muted, ProgressBar(d, d+p, 28)),
	}
}

// FlatLines renders one line per item: short id, box, text.
func FlatLines(items []model.Todo) []string {
	if len(items) == 0 {
		return []string{C(Current().Muted, EmptyState)}
	}
	return itemLines(items, ShortIDs(items))
}

func itemLines(items []model.Todo, ids map[string]string) []string {
	t := Current()
	width := 0
	for _, it := range items {
		width = max(width, len(ids[it.ID]))
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		text := xansi.Truncate(it.Text, 80, "...")
		out = append(out, fmt.Sprintf("%s %s %s",
			Dim(fmt.Sprintf("%-*s", width, ids[it.ID])), C(color, box), text))
	}
	return out
}

// GroupLines renders pending items first, then done ones, under headings.
// Short ids stay unique across both groups.
func GroupLines(items []model.Todo) []string {
	t := Current()
	ids := ShortIDs(items)
	var pend, done []model.Todo
	for _, it := range items {
		if it.Completed {
			done = append(done, it)
		} else {
			pend = append(pend, it)
		}
	}
	var lines []string
	lines = append(lines, C(t.Accent, "Pending"))
	if len(pend) == 0 {
		lines = append(lines, C(t.Muted, "(none)"))
	} else {
		lines = append(lines, itemLines(pend, ids)...)
	}
	lines = append(lines, "")
	lines = append(lines, C(t.Accent, "Done"))
	if len(done) == 0 {
		lines = append(lines, C(t.Muted, "(none)"))
	} else {
		lines = append(lines, itemLines(done, ids)...)
	}
	return lines
}
