// Package controller owns the lifecycle of one question: validate, send,
// render or report, and always come back to idle.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"askdb/internal/api"
	"askdb/internal/apperrors"
	"askdb/internal/history"
	"askdb/internal/render"
	"askdb/internal/settings"
)

// State of the controller
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// allowed transitions
var transitions = map[State][]State{
	Idle:       {Submitting},
	Submitting: {Succeeded, Failed},
	Succeeded:  {Idle},
	Failed:     {Idle},
}

// ErrBusy is returned when a question is submitted while another is in flight
var ErrBusy = errors.New("a query is already being processed")

// View is the surface the controller drives. Calls arrive on the goroutine
// that called Submit.
type View interface {
	SetBusy(busy bool)
	ShowError(message string)
	HideError()
	HideResults()
	ShowResults(res render.Result)
}

// Backend answers questions
type Backend interface {
	ProcessQuery(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error)
}

// Recorder keeps asked questions; optional
type Recorder interface {
	Record(ctx context.Context, query string) (*history.History, error)
}

// Controller is the query UI controller. Construct it once per view.
type Controller struct {
	backend  Backend
	settings *settings.Repository
	history  Recorder
	view     View
	log      zerolog.Logger

	mu    sync.Mutex
	state State
	last  *api.QueryResponse
}

// New creates a controller. history may be nil.
func New(backend Backend, repo *settings.Repository, history Recorder, view View, log zerolog.Logger) *Controller {
	return &Controller{
		backend:  backend,
		settings: repo,
		history:  history,
		view:     view,
		log:      log.With().Str("component", "controller").Logger(),
		state:    Idle,
	}
}

// State reports the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastResponse is the answer currently on screen, or nil while submitting
// and after a failure
func (c *Controller) LastResponse() *api.QueryResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Controller) transition(to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transitionLocked(to)
}

func (c *Controller) transitionLocked(to State) error {
	for _, next := range transitions[c.state] {
		if next == to {
			c.log.Debug().Stringer("from", c.state).Stringer("to", to).Msg("state change")
			c.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s", c.state, to)
}

// Submit sends one question and drives the view through the exchange. It
// returns the response on success. Every failure is also shown on the view;
// the returned error is for callers without a view (the one-shot command).
func (c *Controller) Submit(ctx context.Context, text string) (*api.QueryResponse, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		err := apperrors.Validation(apperrors.MsgEmptyQuery)
		c.view.ShowError(err.Message)
		return nil, err
	}

	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if err := c.transitionLocked(Submitting); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	// results are hidden from here on, so the old answer is gone too
	c.last = nil
	c.mu.Unlock()

	c.view.SetBusy(true)
	c.view.HideResults()
	c.view.HideError()

	resp, err := c.exchange(ctx, query)

	if err != nil {
		_ = c.transition(Failed)
		c.log.Warn().Err(err).Msg("query failed")
		c.view.ShowError(apperrors.UserMessage(err))
	} else {
		c.mu.Lock()
		c.last = resp
		_ = c.transitionLocked(Succeeded)
		c.mu.Unlock()
		c.view.ShowResults(render.NewResult(resp))
	}

	c.view.SetBusy(false)
	_ = c.transition(Idle)
	return resp, err
}

func (c *Controller) exchange(ctx context.Context, query string) (*api.QueryResponse, error) {
	conn, err := c.settings.Load(ctx)
	if err != nil {
		// unreadable storage still leaves a usable default record
		c.log.Warn().Err(err).Msg("using default connection settings")
	}

	if c.history != nil {
		if _, err := c.history.Record(ctx, query); err != nil {
			c.log.Warn().Err(err).Msg("could not record question")
		}
	}

	c.log.Info().Str("query", query).Str("host", conn.Host).Str("database", conn.Database).Msg("submitting question")
	return c.backend.ProcessQuery(ctx, api.QueryRequest{Query: query, Connection: &conn})
}

// SaveConnectionSettings stores fields with blanks replaced by defaults and
// returns what was stored
func (c *Controller) SaveConnectionSettings(ctx context.Context, fields settings.ConnectionSettings) (settings.ConnectionSettings, error) {
	return c.settings.Save(ctx, fields)
}

// ConnectionSettings returns the record the next submission will send
func (c *Controller) ConnectionSettings(ctx context.Context) (settings.ConnectionSettings, error) {
	return c.settings.Load(ctx)
}
