package tui

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rivo/tview"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdb/internal/api"
	"askdb/internal/controller"
	"askdb/internal/history"
	"askdb/internal/render"
	"askdb/internal/settings"
	"askdb/internal/store"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 8))
	assert.Equal(t, "exactly8", truncateString("exactly8", 8))
	assert.Equal(t, "too lon…", truncateString("too long value", 8))
	assert.Equal(t, "…", truncateString("abc", 1))
	assert.Equal(t, "Zürich …", truncateString("Zürich Airport", 8))
}

func TestColumnWidths(t *testing.T) {
	long := "a very long product description that goes on and on and on"
	tbl := render.Table{
		Headers: []string{"id", "productDescription", "x"},
		Rows:    [][]string{{"1", long, "y", "extra"}},
	}
	assert.Equal(t, []int{minColWidth, maxColWidth, minColWidth, minColWidth}, columnWidths(tbl))
}

func TestFillTable(t *testing.T) {
	table := tview.NewTable()
	fillTable(table, render.Table{
		Headers: []string{"orderNumber", "shippedDate"},
		Rows:    [][]string{{"10165", "NULL"}},
	})

	assert.Equal(t, 2, table.GetRowCount())
	assert.Equal(t, 2, table.GetColumnCount())
	assert.Equal(t, "orderNumber", table.GetCell(0, 0).Text)
	assert.Equal(t, "shippedDate", table.GetCell(0, 1).Text)
	assert.Equal(t, "10165", table.GetCell(1, 0).Text)
	assert.Equal(t, "NULL", table.GetCell(1, 1).Text)

	fillTable(table, render.Table{Empty: true})
	assert.Equal(t, 1, table.GetRowCount())
	assert.Equal(t, render.NoResultsNotice, table.GetCell(0, 0).Text)
}

type fakePinger struct{}

func (fakePinger) Ping(context.Context) api.Reachability { return api.Connected }

func newTestApp(t *testing.T) (*App, *history.Book) {
	t.Helper()
	return newTestAppAt(t, "http://127.0.0.1:1")
}

func newTestAppAt(t *testing.T, endpoint string) (*App, *history.Book) {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	log := zerolog.Nop()
	book := history.NewBook(s, 10)
	repo := settings.NewRepository(s, log)
	a := New(func(view controller.View) *controller.Controller {
		return controller.New(api.New(endpoint, nil, log), repo, book, view, log)
	}, fakePinger{}, book, log)
	return a, book
}

func TestSortByHeader(t *testing.T) {
	a, _ := newTestApp(t)
	a.current = render.Table{
		Headers: []string{"name", "n"},
		Rows:    [][]string{{"b", "2"}, {"a", "1"}, {"c", "3"}},
	}
	fillTable(a.resultsTable, a.current)

	a.sortByHeader(0, 0)
	assert.Equal(t, "a", a.resultsTable.GetCell(1, 0).Text)
	assert.Equal(t, "c", a.resultsTable.GetCell(3, 0).Text)
	assert.True(t, a.sortAscending)

	a.sortByHeader(0, 0)
	assert.False(t, a.sortAscending)
	assert.Equal(t, "c", a.resultsTable.GetCell(1, 0).Text)

	// clicks on data rows do not sort
	a.sortByHeader(2, 1)
	assert.Equal(t, 0, a.sortColumn)
}

func TestHistoryDelete(t *testing.T) {
	a, book := newTestApp(t)
	ctx := context.Background()
	_, err := book.Record(ctx, "first question")
	require.NoError(t, err)
	_, err = book.Record(ctx, "second question")
	require.NoError(t, err)

	a.hist, err = book.Load(ctx)
	require.NoError(t, err)
	a.refreshHistoryList()
	require.Equal(t, 2, a.historyList.GetItemCount())

	a.deleteHistoryEntry(0)
	a.deleteHistoryEntry(5)

	h, err := book.Load(ctx)
	require.NoError(t, err)
	require.Len(t, h.Entries, 1)
	assert.Equal(t, "first question", h.Entries[0].Query)
	assert.Equal(t, 1, a.historyList.GetItemCount())
}
