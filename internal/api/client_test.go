package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdb/internal/api"
	"askdb/internal/apperrors"
	"askdb/internal/settings"
)

func newClient(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return api.New(srv.URL+"/", srv.Client(), zerolog.Nop())
}

func TestProcessQueryRequestBody(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/process_query", r.URL.Path)
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"user_query":"q","sql_query":"SELECT 1","query_result":[[1]],"column_names":["1"],"explanation":""}`))
	})

	conn := settings.Defaults()
	_, err := c.ProcessQuery(context.Background(), api.QueryRequest{
		Query:      "Which orders were shipped later than the required date?",
		Connection: &conn,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"query": "Which orders were shipped later than the required date?",
		"connection": map[string]any{
			"host":     "localhost",
			"user":     "root",
			"password": "",
			"database": "",
		},
	}, got)
}

func TestProcessQueryOmitsMissingConnection(t *testing.T) {
	var raw string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := c.ProcessQuery(context.Background(), api.QueryRequest{Query: "q"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"q"}`, raw)
}

func TestProcessQueryDecodesNumbersVerbatim(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query_result":[[12345678901234567890, 1.50, null, "x", true]],"column_names":["a","b","c","d","e"]}`))
	})

	resp, err := c.ProcessQuery(context.Background(), api.QueryRequest{Query: "q"})
	require.NoError(t, err)
	require.Len(t, resp.QueryResult, 1)
	row := resp.QueryResult[0]
	assert.Equal(t, json.Number("12345678901234567890"), row[0])
	assert.Equal(t, json.Number("1.50"), row[1])
	assert.Nil(t, row[2])
	assert.Equal(t, "x", row[3])
	assert.Equal(t, true, row[4])
}

func TestProcessQueryEmptyQueryIsValidationError(t *testing.T) {
	called := false
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.ProcessQuery(context.Background(), api.QueryRequest{})
	assert.True(t, apperrors.IsValidation(err))
	assert.False(t, called)
}

func TestProcessQueryErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		server    bool
		transport bool
		message   string
	}{
		{name: "error field", status: 500, body: `{"error":"Invalid query- 1064"}`, server: true, message: "Invalid query- 1064"},
		{name: "missing field", status: 400, body: `{"detail":"x"}`, server: true, message: apperrors.MsgServerDefault},
		{name: "html body", status: 503, body: `<h1>down</h1>`, server: true, message: apperrors.MsgServerDefault},
		{name: "bad success body", status: 200, body: `<h1>ok</h1>`, transport: true},
		{name: "trailing data", status: 200, body: `{} {}`, transport: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			resp, err := c.ProcessQuery(context.Background(), api.QueryRequest{Query: "q"})
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Equal(t, tt.server, apperrors.IsServer(err))
			assert.Equal(t, tt.transport, apperrors.IsTransport(err))
			if tt.message != "" {
				assert.Equal(t, tt.message, apperrors.UserMessage(err))
			}
		})
	}
}

func TestProcessQueryUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := api.New(url, nil, zerolog.Nop())
	_, err := c.ProcessQuery(context.Background(), api.QueryRequest{Query: "q"})
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, api.Disconnected, c.Ping(context.Background()))
}

func TestPing(t *testing.T) {
	tests := []struct {
		status int
		want   api.Reachability
	}{
		{status: 200, want: api.Connected},
		{status: 404, want: api.Connected},
		{status: 500, want: api.ServerTrouble},
	}

	for _, tt := range tests {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			w.WriteHeader(tt.status)
		})
		assert.Equal(t, tt.want, c.Ping(context.Background()))
	}
	assert.Equal(t, "Server Error", api.ServerTrouble.String())
	assert.Equal(t, "Disconnected", api.Disconnected.String())
}

func TestPingStopsAtDeadline(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Equal(t, api.Disconnected, c.Ping(ctx))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestBaseURLTrimsSlash(t *testing.T) {
	c := api.New("http://localhost:5000///", nil, zerolog.Nop())
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}
