package render

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"askdb/internal/api"
)

// Result is everything shown after a successful query
type Result struct {
	Question    string
	SQL         string
	Table       Table
	Explanation string
}

// NewResult renders resp for display
func NewResult(resp *api.QueryResponse) Result {
	if resp == nil {
		return Result{Table: Table{Empty: true}}
	}
	return Result{
		Question:    resp.UserQuery,
		SQL:         resp.SQLQuery,
		Table:       BuildTable(resp),
		Explanation: Explanation(resp.Explanation),
	}
}

// Explanation turns the backend's HTML explanation into terminal text. The
// markup is trusted as-is and not sanitized. Text without tags is returned
// unchanged so markdown escaping never touches plain prose.
func Explanation(html string) string {
	if !strings.Contains(html, "<") || !strings.Contains(html, ">") {
		return strings.TrimSpace(html)
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.TrimSpace(md)
}
