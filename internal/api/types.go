package api

import "askdb/internal/settings"

// ProcessQueryPath is the backend route that turns a question into SQL, runs
// it and explains the result.
const ProcessQueryPath = "/process_query"

// QueryRequest is the body posted to ProcessQueryPath
type QueryRequest struct {
	Query      string                       `json:"query" validate:"required"`
	Connection *settings.ConnectionSettings `json:"connection,omitempty"`
}

// QueryResponse is the success body. Cells hold JSON scalars, nested JSON or
// nil; numbers arrive as json.Number so they print exactly as sent.
type QueryResponse struct {
	UserQuery   string   `json:"user_query"`
	SQLQuery    string   `json:"sql_query"`
	QueryResult [][]any  `json:"query_result"`
	ColumnNames []string `json:"column_names"`
	Explanation string   `json:"explanation"` // HTML, trusted
}

// errorResponse is the body sent with a non-success status
type errorResponse struct {
	Error string `json:"error"`
}

// Reachability is the result of a Ping
type Reachability int

const (
	Disconnected Reachability = iota
	Connected
	ServerTrouble
)

func (r Reachability) String() string {
	switch r {
	case Connected:
		return "Connected"
	case ServerTrouble:
		return "Server Error"
	default:
		return "Disconnected"
	}
}
