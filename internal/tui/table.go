package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"askdb/internal/render"
)

const (
	maxColWidth = 40
	minColWidth = 8
	// rows sampled when sizing columns
	widthSampleRows = 5
)

// truncateString truncates a string to maxLen and adds ellipsis if needed
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	return string(r[:maxLen-1]) + "…"
}

// columnWidths sizes each column from its header and the first few rows,
// clamped to [minColWidth, maxColWidth]
func columnWidths(t render.Table) []int {
	widths := make([]int, t.Width())
	for c := range widths {
		width := minColWidth
		if c < len(t.Headers) {
			if n := len([]rune(t.Headers[c])); n > width {
				width = n
			}
		}
		for r := 0; r < len(t.Rows) && r < widthSampleRows; r++ {
			if n := len([]rune(t.Cell(r, c))); n > width {
				width = n
			}
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		widths[c] = width
	}
	return widths
}

// fillTable draws t into table: a bold header row then one row per result row
func fillTable(table *tview.Table, t render.Table) {
	table.Clear()
	if t.Empty {
		table.SetCell(0, 0, tview.NewTableCell(render.NoResultsNotice).
			SetSelectable(false).
			SetTextColor(tcell.ColorYellow))
		return
	}

	widths := columnWidths(t)
	for c, h := range t.Headers {
		cell := tview.NewTableCell(truncateString(h, widths[c])).
			SetSelectable(true).
			SetAttributes(tcell.AttrBold).
			SetMaxWidth(widths[c])
		table.SetCell(0, c, cell)
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell := tview.NewTableCell(truncateString(v, widths[c])).SetMaxWidth(widths[c])
			if v == render.NullText {
				cell.SetTextColor(tcell.ColorGray)
			}
			table.SetCell(r+1, c, cell)
		}
	}
}
