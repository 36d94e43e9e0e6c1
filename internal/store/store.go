// Package store is askdb's client-side key/value storage: one string value per
// key, overwritten wholesale on every Set.
package store

import (
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
)

// AppName names the per-user config directory
const AppName = "askdb"

// ErrNotFound is returned by Get when the key has never been set
var ErrNotFound = errors.New("store: key not found")

// Store holds string values under string keys
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ConfigDir returns $XDG_CONFIG_HOME/askdb, or ~/.config/askdb
func ConfigDir() (string, error) {
	if env := os.Getenv("XDG_CONFIG_HOME"); env != "" {
		return filepath.Join(env, AppName), nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, ".config", AppName), nil
}
