package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"askdb/internal/api"
)

// Output formats for Write
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
)

// Formats lists the accepted --format values
var Formats = []string{FormatTable, FormatJSON, FormatCSV, FormatMarkdown}

// Write prints a response in the given format. table and md print the full
// answer; json prints the response as received; csv prints only the rows.
func Write(w io.Writer, resp *api.QueryResponse, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case FormatCSV:
		return writeCSV(w, BuildTable(resp))
	case FormatMarkdown, "markdown":
		return writeMarkdown(w, NewResult(resp))
	case FormatTable, "":
		return writeText(w, NewResult(resp))
	default:
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func writeText(w io.Writer, res Result) error {
	_, _ = fmt.Fprintf(w, "Question:\n  %s\n\n", res.Question)
	_, _ = fmt.Fprintf(w, "SQL:\n  %s\n\n", indent(res.SQL))
	_, _ = fmt.Fprintln(w, "Results:")
	if res.Table.Empty {
		_, _ = fmt.Fprintf(w, "  %s\n", NoResultsNotice)
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(toRow(res.Table.Headers))
		for _, r := range res.Table.Rows {
			t.AppendRow(toRow(r))
		}
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(res.Table.Rows))
	}
	if res.Explanation != "" {
		_, _ = fmt.Fprintf(w, "\nExplanation:\n  %s\n", indent(res.Explanation))
	}
	return nil
}

func writeMarkdown(w io.Writer, res Result) error {
	_, _ = fmt.Fprintf(w, "**Question:** %s\n\n", res.Question)
	_, _ = fmt.Fprintf(w, "```sql\n%s\n```\n\n", res.SQL)
	if res.Table.Empty {
		_, _ = fmt.Fprintf(w, "%s\n", NoResultsNotice)
	} else {
		_, _ = fmt.Fprintf(w, "| %s |\n", markdownRow(res.Table.Headers))
		seps := make([]string, len(res.Table.Headers))
		for i := range seps {
			seps[i] = "---"
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
		for _, r := range res.Table.Rows {
			_, _ = fmt.Fprintf(w, "| %s |\n", markdownRow(r))
		}
	}
	if res.Explanation != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", res.Explanation)
	}
	return nil
}

// markdownRow joins cells with pipe separators, escaping pipes and newlines
// inside cells so they cannot split a column
func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		escaped[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return strings.Join(escaped, " | ")
}

func writeCSV(w io.Writer, t Table) error {
	if t.Empty {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n  ")
}
