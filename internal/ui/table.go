package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table renders rows under a header as an aligned plain-text table.
// Column widths are computed by display width so CJK content lines up.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string, dim bool) {
		if dim {
			sb.WriteString(ansiDim)
		}
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			if i < len(widths)-1 {
				sb.WriteString("  ")
			}
		}
		if dim {
			sb.WriteString(ansiReset)
		}
		sb.WriteString("\n")
	}

	writeRow(headers, true)
	rule := make([]string, len(headers))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	writeRow(rule, true)
	for _, row := range rows {
		writeRow(row, false)
	}
	return sb.String()
}

// ClipWidth truncates s to at most w display columns, appending "…" when
// trimmed.
func ClipWidth(s string, w int) string {
	if runewidth.StringWidth(s) <= w {
		return s
	}
	return runewidth.Truncate(s, w, "…")
}

// Statusf formats a dim status line.
func Statusf(format string, args ...any) string {
	return ansiDim + fmt.Sprintf(format, args...) + ansiReset
}
