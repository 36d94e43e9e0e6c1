// Package render turns a backend answer into what the user sees: headers,
// cell text, the explanation and one-shot text output.
package render

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"askdb/internal/api"
)

// NoResultsNotice replaces the table when the query returned no rows
const NoResultsNotice = "No results returned from the query."

// NullText is shown for null cells
const NullText = "NULL"

// Table is a rendered result set. When Empty is set there is no table at all,
// only NoResultsNotice.
type Table struct {
	Headers []string
	Rows    [][]string
	Empty   bool
}

// BuildTable maps a response to a table. column_names are used verbatim when
// present; otherwise headers are "Column 1..N" sized to the first row.
func BuildTable(resp *api.QueryResponse) Table {
	if resp == nil || len(resp.QueryResult) == 0 {
		return Table{Empty: true}
	}

	var headers []string
	if len(resp.ColumnNames) > 0 {
		headers = append(headers, resp.ColumnNames...)
	} else {
		headers = make([]string, len(resp.QueryResult[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	rows := make([][]string, len(resp.QueryResult))
	for r, row := range resp.QueryResult {
		cells := make([]string, len(row))
		for c, v := range row {
			cells[c] = CellText(v)
		}
		rows[r] = cells
	}
	return Table{Headers: headers, Rows: rows}
}

// CellText is the string form of one cell value
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return NullText
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Cell returns the text at (row, col), or "" for a short row
func (t Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Width is the widest of the header row and every data row
func (t Table) Width() int {
	w := len(t.Headers)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// SortRows orders rows by the text of column col. The sort is stable so equal
// cells keep the backend's order.
func SortRows(t *Table, col int, ascending bool) {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		vi, vj := t.Cell(i, col), t.Cell(j, col)
		if ascending {
			return vi < vj
		}
		return vi > vj
	})
}

// RowDetail lists "header: value" lines for one row
func RowDetail(t Table, row int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	var b strings.Builder
	for c := 0; c < len(t.Rows[row]); c++ {
		name := fmt.Sprintf("Column %d", c+1)
		if c < len(t.Headers) {
			name = t.Headers[c]
		}
		fmt.Fprintf(&b, "%s: %s\n", name, t.Rows[row][c])
	}
	return b.String()
}
