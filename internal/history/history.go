// Package history keeps the questions asked, newest first.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"askdb/internal/store"
)

// StorageKey is where the history lives in the store
const StorageKey = "queryHistory"

// DefaultMaxLen bounds the history when no limit is configured
const DefaultMaxLen = 200

// Entry stores a question and when it was last asked
type Entry struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// History holds recent questions
type History struct {
	Entries []Entry `json:"entries"`
}

// Append puts query at the front, keeping maxLen entries. Blank queries are
// ignored and a repeat of the newest entry only refreshes its timestamp.
func (h *History) Append(query string, now time.Time, maxLen int) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	// avoid consecutive duplicates
	if len(h.Entries) > 0 && h.Entries[0].Query == query {
		h.Entries[0].Timestamp = now
		return
	}
	h.Entries = append([]Entry{{Query: query, Timestamp: now}}, h.Entries...)
	if len(h.Entries) > maxLen {
		h.Entries = h.Entries[:maxLen]
	}
}

// Remove drops the entry at index i; out of range is a no-op
func (h *History) Remove(i int) bool {
	if i < 0 || i >= len(h.Entries) {
		return false
	}
	h.Entries = append(h.Entries[:i], h.Entries[i+1:]...)
	return true
}

// Book loads and saves a History in a store
type Book struct {
	store  store.Store
	maxLen int
	now    func() time.Time
}

// NewBook creates a Book keeping at most maxLen entries
func NewBook(s store.Store, maxLen int) *Book {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Book{store: s, maxLen: maxLen, now: time.Now}
}

// Load returns the stored history. A missing or corrupted record is an empty
// history rather than an error.
func (b *Book) Load(ctx context.Context) (*History, error) {
	raw, err := b.store.Get(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		return &History{Entries: []Entry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	var h History
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return &History{Entries: []Entry{}}, nil
	}
	if h.Entries == nil {
		h.Entries = []Entry{}
	}
	return &h, nil
}

// Save overwrites the stored history with h
func (b *Book) Save(ctx context.Context, h *History) error {
	raw, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := b.store.Set(ctx, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Record appends query to the stored history and returns the updated copy
func (b *Book) Record(ctx context.Context, query string) (*History, error) {
	h, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	h.Append(query, b.now(), b.maxLen)
	if err := b.Save(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// Clear removes every entry
func (b *Book) Clear(ctx context.Context) error {
	if err := b.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
