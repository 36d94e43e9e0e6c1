// Package settings persists the database connection the backend should use.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"askdb/internal/store"
)

// StorageKey is the one key the settings record lives under
const StorageKey = "dbConnection"

// Values substituted for blank fields
const (
	DefaultHost     = "localhost"
	DefaultUser     = "root"
	DefaultPassword = ""
	DefaultDatabase = ""
)

// ConnectionSettings is the database the backend should run queries against
type ConnectionSettings struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Defaults returns the record used when nothing valid is stored
func Defaults() ConnectionSettings {
	return ConnectionSettings{
		Host:     DefaultHost,
		User:     DefaultUser,
		Password: DefaultPassword,
		Database: DefaultDatabase,
	}
}

// Normalize replaces every empty field with its default
func Normalize(fields ConnectionSettings) ConnectionSettings {
	out := fields
	if out.Host == "" {
		out.Host = DefaultHost
	}
	if out.User == "" {
		out.User = DefaultUser
	}
	if out.Password == "" {
		out.Password = DefaultPassword
	}
	if out.Database == "" {
		out.Database = DefaultDatabase
	}
	return out
}

// Masked returns a copy safe to print
func (c ConnectionSettings) Masked() ConnectionSettings {
	if c.Password != "" {
		c.Password = "********"
	}
	return c
}

// Repository reads and writes the settings record in a store
type Repository struct {
	store store.Store
	log   zerolog.Logger
}

// NewRepository creates a repository over s
func NewRepository(s store.Store, log zerolog.Logger) *Repository {
	return &Repository{
		store: s,
		log:   log.With().Str("component", "settings").Logger(),
	}
}

// Save normalizes fields and overwrites the stored record
func (r *Repository) Save(ctx context.Context, fields ConnectionSettings) (ConnectionSettings, error) {
	rec := Normalize(fields)
	b, err := json.Marshal(rec)
	if err != nil {
		return ConnectionSettings{}, fmt.Errorf("encode connection settings: %w", err)
	}
	if err := r.store.Set(ctx, StorageKey, string(b)); err != nil {
		return ConnectionSettings{}, fmt.Errorf("save connection settings: %w", err)
	}
	r.log.Info().Str("host", rec.Host).Str("user", rec.User).Str("database", rec.Database).Msg("connection settings saved")
	return rec, nil
}

// Load returns the stored record. Absent or unparsable values give Defaults();
// only a failing store is an error.
func (r *Repository) Load(ctx context.Context) (ConnectionSettings, error) {
	raw, err := r.store.Get(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("load connection settings: %w", err)
	}
	// a stored JSON null is treated like a missing record
	var rec *ConnectionSettings
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		r.log.Warn().Err(err).Msg("stored connection settings are malformed, using defaults")
		return Defaults(), nil
	}
	if rec == nil {
		return Defaults(), nil
	}
	return Normalize(*rec), nil
}
