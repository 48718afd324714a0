package ui

import (
	"strings"

	"github.com/dirsnap/dirsnap/internal/scanner"
	"github.com/dirsnap/dirsnap/internal/stats"
)

// row is one visible line of the tree: an entry plus its indent level.
type row struct {
	entry *scanner.Entry
	depth int
}

// flatten turns the subtree into visible rows, descending only into
// directories marked expanded.
func flatten(e *scanner.Entry, depth int, expanded map[*scanner.Entry]bool, rows []row) []row {
	rows = append(rows, row{entry: e, depth: depth})
	if e.Kind == scanner.KindDirectory && expanded[e] {
		for _, child := range e.Children {
			rows = flatten(child, depth+1, expanded, rows)
		}
	}
	return rows
}

// expandable reports whether the row can be opened.
func (r row) expandable() bool {
	return r.entry.Kind == scanner.KindDirectory && len(r.entry.Children) > 0
}

// marker returns the tree marker for the row.
func (r row) marker(expanded bool) string {
	if r.entry.Kind != scanner.KindDirectory {
		return "  "
	}
	if !r.expandable() {
		return "▪ "
	}
	if expanded {
		return "▾ "
	}
	return "▸ "
}

// badges returns styled annotation badges for the entry.
func (r row) badges() string {
	e := r.entry
	var parts []string

	if e.CycleDetected {
		parts = append(parts, BadgeCycle.Render("CYCLE"))
	}
	if e.MaxDepthReached {
		parts = append(parts, BadgeInfo.Render("DEPTH"))
	}
	if e.Excluded {
		parts = append(parts, BadgeInfo.Render("EXCLUDED"))
	}
	switch {
	case e.PermissionError:
		parts = append(parts, BadgeError.Render("PERM"))
	case e.Degraded():
		parts = append(parts, BadgeError.Render("ERR"))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// label returns the styled name plus size for files.
func (r row) label(selected bool) string {
	e := r.entry

	style := FileStyle
	switch {
	case selected:
		style = SelectedStyle
	case e.Hidden:
		style = HiddenStyle
	case e.Kind == scanner.KindDirectory:
		style = DirStyle
	}

	label := style.Render(e.Name)
	if e.Kind == scanner.KindFile && e.Size != nil {
		label += SizeStyle.Render("  " + stats.FormatBytes(uint64(*e.Size)))
	}
	return label
}

// render produces the full line for the row.
func (r row) render(selected, expanded bool) string {
	indent := strings.Repeat("  ", r.depth)
	cursor := "  "
	if selected {
		cursor = "> "
	}
	return cursor + indent + r.marker(expanded) + r.label(selected) + r.badges()
}
