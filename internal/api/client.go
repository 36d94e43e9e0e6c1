// Package api talks to the natural-language-to-SQL backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"askdb/internal/apperrors"
)

var validate = validator.New()

// Client posts questions to one backend. It never retries and sets no timeout
// of its own; the caller's context is the only way to abort a request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a client for the backend rooted at baseURL. A nil httpClient
// uses a plain http.Client.
func New(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log.With().Str("component", "api").Logger(),
	}
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ProcessQuery sends req and decodes the answer. Failures are *apperrors.Error
// of kind Transport (no usable response) or Server (non-success status).
func (c *Client) ProcessQuery(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperrors.Validation(apperrors.MsgEmptyQuery)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Transport("encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ProcessQueryPath, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Transport("build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", httpReq.URL.String()).Int("bytes", len(body)).Msg("posting query")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperrors.Transport("send request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Transport("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		// a body that is not JSON just gets the generic message
		_ = json.Unmarshal(raw, &e)
		c.log.Warn().Int("status", resp.StatusCode).Str("error", e.Error).Msg("backend rejected query")
		return nil, apperrors.Server(resp.StatusCode, e.Error)
	}

	out, err := decodeResponse(raw)
	if err != nil {
		return nil, apperrors.Transport("decode response", err)
	}
	c.log.Debug().Int("rows", len(out.QueryResult)).Int("columns", len(out.ColumnNames)).Msg("query answered")
	return out, nil
}

func decodeResponse(raw []byte) (*QueryResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out QueryResponse
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after response")
	}
	return &out, nil
}

// Ping checks whether the backend answers at all. Anything below 500 counts as
// connected.
func (c *Client) Ping(ctx context.Context) Reachability {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return Disconnected
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Disconnected
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode < 500 {
		return Connected
	}
	return ServerTrouble
}
