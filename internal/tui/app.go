// Package tui is the interactive terminal front-end: question editor, results
// table, SQL and explanation panes, history, and the connection form.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"askdb/internal/api"
	"askdb/internal/controller"
	"askdb/internal/history"
	"askdb/internal/render"
	"askdb/internal/settings"
)

const (
	submitLabel = "Generate SQL Query"
	busyLabel   = "Processing..."

	pingInterval = 5 * time.Second

	// history rows shown in the list
	historyListCap = 100

	helpLine = "[yellow]Shortcuts:[white] Enter Run  Ctrl-O Connection  Tab Cycle  D Delete  Ctrl-E Export  F1 Help  Ctrl-Q Quit"
)

const helpText = `[yellow]Keyboard Shortcuts:[white]

[yellow]Questions:[white]
  Enter          Ask the question in the editor
  Ctrl-O         Edit database connection

[yellow]Navigation:[white]
  Tab            Cycle through panes
  Arrow Keys     Navigate within panes

[yellow]History:[white]
  D              Delete selected history entry
  Click/Enter    Load question into editor

[yellow]Results:[white]
  Click Header   Sort by column
  Ctrl-E         Export last answer to JSON

[yellow]Other:[white]
  F1             Show this help
  ?              Show this help (outside the editor)
  Ctrl-Q         Quit`

// Pinger reports whether the backend is up
type Pinger interface {
	Ping(ctx context.Context) api.Reachability
}

// App wires tview widgets to a controller. It is the controller's View.
type App struct {
	app    *tview.Application
	ctrl   *controller.Controller
	pinger Pinger
	book   *history.Book
	log    zerolog.Logger

	// pingTimeout bounds each reachability check
	pingTimeout time.Duration

	root             *tview.Flex
	historyList      *tview.List
	historyPreview   *tview.TextView
	editor           *tview.TextArea
	submitBtn        *tview.Button
	connectionBtn    *tview.Button
	errorView        *tview.TextView
	questionView     *tview.TextView
	sqlView          *tview.TextView
	resultsTable     *tview.Table
	detailView       *tview.TextView
	explanationView  *tview.TextView
	connectionStatus *tview.TextView
	status           *tview.TextView

	hist          *history.History
	current       render.Table
	sortColumn    int
	sortAscending bool
	busy          bool
	// overlay is set while the connection form or help covers the main view
	overlay bool
}

// ControllerFactory builds the controller for a view
type ControllerFactory func(view controller.View) *controller.Controller

// New builds the widget tree. newCtrl receives the App as its View.
func New(newCtrl ControllerFactory, pinger Pinger, book *history.Book, log zerolog.Logger) *App {
	a := &App{
		app:         tview.NewApplication(),
		pinger:      pinger,
		pingTimeout: pingInterval,
		book:        book,
		log:         log.With().Str("component", "tui").Logger(),
		sortColumn:  -1,
		hist:        &history.History{Entries: []history.Entry{}},
	}
	a.ctrl = newCtrl(a)
	a.build()
	return a
}

func (a *App) build() {
	a.historyList = tview.NewList().ShowSecondaryText(false)
	a.historyList.SetBorder(true).SetTitle("History")

	a.historyPreview = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWordWrap(true)
	a.historyPreview.SetBorder(true).SetTitle("Preview")

	a.editor = tview.NewTextArea()
	a.editor.SetPlaceholder("Ask a question about the database, press Enter to run")
	a.editor.SetBorder(true).SetTitle("Question")

	a.submitBtn = tview.NewButton(submitLabel).SetSelectedFunc(func() {
		a.runQuery(a.editor.GetText())
	})
	a.connectionBtn = tview.NewButton("Connection").SetSelectedFunc(a.showConnectionForm)

	a.errorView = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true)

	a.questionView = tview.NewTextView().SetDynamicColors(true).SetWordWrap(true)
	a.questionView.SetBorder(true).SetTitle("Your Question")

	a.sqlView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWordWrap(true)
	a.sqlView.SetBorder(true).SetTitle("Generated SQL")

	a.resultsTable = tview.NewTable().SetFixed(1, 0).SetSelectable(true, true)
	a.resultsTable.SetBorder(true).SetTitle("Results")

	a.detailView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWordWrap(true)
	a.detailView.SetBorder(true).SetTitle("Detail")

	a.explanationView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWordWrap(true)
	a.explanationView.SetBorder(true).SetTitle("Explanation")

	a.connectionStatus = tview.NewTextView().SetDynamicColors(true)
	a.connectionStatus.SetBorder(true).SetTitle("Backend")
	a.connectionStatus.SetText("[yellow]●[white] Checking...")

	a.status = tview.NewTextView().SetDynamicColors(true)

	// layout
	a.root = tview.NewFlex().SetDirection(tview.FlexRow)

	topBar := tview.NewFlex()
	topBar.AddItem(a.connectionStatus, 24, 0, false)
	a.root.AddItem(topBar, 3, 0, false)

	historyColumn := tview.NewFlex().SetDirection(tview.FlexRow)
	historyColumn.AddItem(a.historyList, 0, 2, false)
	historyColumn.AddItem(a.historyPreview, 0, 1, false)

	buttons := tview.NewFlex()
	buttons.AddItem(a.submitBtn, len(submitLabel)+4, 0, false)
	buttons.AddItem(nil, 1, 0, false)
	buttons.AddItem(a.connectionBtn, 14, 0, false)
	buttons.AddItem(a.errorView, 0, 1, false)

	answerRow := tview.NewFlex()
	answerRow.AddItem(a.questionView, 0, 1, false)
	answerRow.AddItem(a.sqlView, 0, 2, false)

	bottomRow := tview.NewFlex()
	bottomRow.AddItem(a.detailView, 0, 1, false)
	bottomRow.AddItem(a.explanationView, 0, 2, false)

	center := tview.NewFlex().SetDirection(tview.FlexRow)
	center.AddItem(a.editor, 5, 0, true)
	center.AddItem(buttons, 1, 0, false)
	center.AddItem(answerRow, 5, 0, false)
	center.AddItem(a.resultsTable, 0, 2, false)
	center.AddItem(bottomRow, 0, 1, false)

	top := tview.NewFlex()
	top.AddItem(historyColumn, 30, 1, false)
	top.AddItem(center, 0, 3, true)

	a.root.AddItem(top, 0, 1, true)
	a.root.AddItem(a.status, 1, 0, false)

	a.historyList.SetChangedFunc(func(index int, _ string, _ string, _ rune) {
		a.previewHistory(index)
	})
	a.historyList.SetInputCapture(a.historyKeys)

	a.resultsTable.SetSelectionChangedFunc(func(row, col int) {
		if row > 0 && !a.current.Empty {
			a.updateDetailView()
		}
	})
	a.resultsTable.SetSelectedFunc(a.sortByHeader)

	a.app.SetInputCapture(a.globalKeys)
	a.setStatus(helpLine)
}

// Run loads history, starts the backend checker and blocks until quit
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if h, err := a.book.Load(ctx); err != nil {
		a.setStatus("[red]Failed to load history: %v", err)
	} else {
		a.hist = h
	}
	a.refreshHistoryList()
	a.previewHistory(0)

	go a.watchBackend(ctx)

	a.app.SetFocus(a.editor)
	return a.app.SetRoot(a.root, true).EnableMouse(true).Run()
}

// View implementation. The controller calls these from the submitting
// goroutine, so every change is queued onto the UI goroutine.

func (a *App) SetBusy(busy bool) {
	a.app.QueueUpdateDraw(func() {
		a.busy = busy
		a.submitBtn.SetDisabled(busy)
		if busy {
			a.submitBtn.SetLabel(busyLabel)
			a.setStatus("[yellow]Processing...")
			return
		}
		a.submitBtn.SetLabel(submitLabel)
		a.setStatus(helpLine)
	})
}

func (a *App) ShowError(message string) {
	a.app.QueueUpdateDraw(func() {
		a.errorView.SetText("[red]" + tview.Escape(message))
	})
}

func (a *App) HideError() {
	a.app.QueueUpdateDraw(func() {
		a.errorView.Clear()
	})
}

func (a *App) HideResults() {
	a.app.QueueUpdateDraw(func() {
		a.current = render.Table{}
		a.sortColumn = -1
		a.sortAscending = true
		a.questionView.Clear()
		a.sqlView.Clear()
		a.resultsTable.Clear()
		a.resultsTable.SetTitle("Results")
		a.detailView.Clear()
		a.explanationView.Clear()
	})
}

func (a *App) ShowResults(res render.Result) {
	a.app.QueueUpdateDraw(func() {
		a.current = res.Table
		a.questionView.SetText(tview.Escape(res.Question))
		a.sqlView.SetText(tview.Escape(res.SQL))
		a.sqlView.ScrollToBeginning()
		a.explanationView.SetText(tview.Escape(res.Explanation))
		a.explanationView.ScrollToBeginning()

		fillTable(a.resultsTable, res.Table)
		if res.Table.Empty {
			a.resultsTable.SetTitle("Results")
			a.detailView.SetText("[yellow]No results")
			return
		}
		a.resultsTable.SetTitle(fmt.Sprintf("Results (%d rows)", len(res.Table.Rows)))
		a.resultsTable.Select(1, 0)
		a.updateDetailView()
		a.app.SetFocus(a.resultsTable)
	})
}

// runQuery hands the question to the controller off the UI goroutine
func (a *App) runQuery(text string) {
	if a.busy {
		return
	}
	go func() {
		_, err := a.ctrl.Submit(context.Background(), text)
		if errors.Is(err, controller.ErrBusy) {
			return
		}
		h, herr := a.book.Load(context.Background())
		a.app.QueueUpdateDraw(func() {
			if herr != nil {
				a.setStatus("[red]Failed to load history: %v", herr)
				return
			}
			a.hist = h
			a.refreshHistoryList()
		})
	}()
}

func (a *App) setStatus(format string, args ...interface{}) {
	if len(args) == 0 {
		a.status.SetText(format)
		return
	}
	a.status.SetText(fmt.Sprintf(format, args...))
}

func (a *App) refreshHistoryList() {
	a.historyList.Clear()
	for i, e := range a.hist.Entries {
		if i >= historyListCap {
			break
		}
		label := fmt.Sprintf("%s — %s", e.Timestamp.Format("2006-01-02 15:04"), e.Query)
		idx := i
		a.historyList.AddItem(tview.Escape(label), "", 0, func() {
			a.editor.SetText(a.hist.Entries[idx].Query, true)
			a.app.SetFocus(a.editor)
		})
	}
}

func (a *App) previewHistory(index int) {
	if index < 0 || index >= len(a.hist.Entries) {
		a.historyPreview.SetText("[gray]No history available")
		return
	}
	e := a.hist.Entries[index]
	var preview strings.Builder
	preview.WriteString(fmt.Sprintf("[yellow]Time:[white] %s\n\n", e.Timestamp.Format("2006-01-02 15:04:05")))
	preview.WriteString("[yellow]Question:[white]\n")
	preview.WriteString(tview.Escape(e.Query))
	a.historyPreview.SetText(preview.String())
	a.historyPreview.ScrollToBeginning()
}

// historyKeys deletes the selected entry on 'd'
func (a *App) historyKeys(event *tcell.EventKey) *tcell.EventKey {
	if event.Rune() != 'd' && event.Rune() != 'D' {
		return event
	}
	a.deleteHistoryEntry(a.historyList.GetCurrentItem())
	return nil
}

func (a *App) deleteHistoryEntry(current int) {
	if !a.hist.Remove(current) {
		return
	}
	if err := a.book.Save(context.Background(), a.hist); err != nil {
		a.setStatus("[red]Failed to save history: %v", err)
		return
	}
	a.refreshHistoryList()
	if n := a.historyList.GetItemCount(); n > 0 {
		if current >= n {
			current = n - 1
		}
		a.historyList.SetCurrentItem(current)
		a.previewHistory(current)
	} else {
		a.previewHistory(-1)
	}
	a.setStatus("[green]History entry deleted")
}

func (a *App) updateDetailView() {
	row, _ := a.resultsTable.GetSelection()
	if row <= 0 || row > len(a.current.Rows) {
		a.detailView.SetText("[yellow]No row selected")
		return
	}
	var details strings.Builder
	details.WriteString(fmt.Sprintf("[yellow::b]Row %d/%d[white::-]\n", row, len(a.current.Rows)))
	details.WriteString(tview.Escape(render.RowDetail(a.current, row-1)))
	a.detailView.SetText(details.String())
	a.detailView.ScrollToBeginning()
}

// sortByHeader sorts on a header click, toggling direction on repeat clicks
func (a *App) sortByHeader(row, col int) {
	if row != 0 || a.current.Empty || col >= len(a.current.Headers) {
		return
	}
	if a.sortColumn == col {
		a.sortAscending = !a.sortAscending
	} else {
		a.sortColumn = col
		a.sortAscending = true
	}
	render.SortRows(&a.current, col, a.sortAscending)
	fillTable(a.resultsTable, a.current)

	arrow := "↓"
	if a.sortAscending {
		arrow = "↑"
	}
	a.resultsTable.SetTitle(fmt.Sprintf("Results (%d rows) [sorted by %s %s]",
		len(a.current.Rows), tview.Escape(a.current.Headers[col]), arrow))
	a.resultsTable.Select(1, col)
	a.updateDetailView()
}

// watchBackend polls the backend until ctx ends
func (a *App) watchBackend(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		r := a.checkBackend(ctx)
		a.app.QueueUpdateDraw(func() {
			a.connectionStatus.SetText(reachabilityText(r))
		})
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// checkBackend runs one ping; a backend that accepts but never answers
// counts as disconnected once pingTimeout passes
func (a *App) checkBackend(ctx context.Context) api.Reachability {
	ctx, cancel := context.WithTimeout(ctx, a.pingTimeout)
	defer cancel()
	return a.pinger.Ping(ctx)
}

func reachabilityText(r api.Reachability) string {
	switch r {
	case api.Connected:
		return "[green]●[white] Connected"
	case api.ServerTrouble:
		return "[yellow]●[white] Server Error"
	default:
		return "[red]●[white] Disconnected"
	}
}

func (a *App) showConnectionForm() {
	current, err := a.ctrl.ConnectionSettings(context.Background())
	if err != nil {
		a.setStatus("[red]Failed to read connection: %v", err)
	}

	form := tview.NewForm()
	form.AddInputField("Host", current.Host, 30, nil, nil)
	form.AddInputField("User", current.User, 30, nil, nil)
	form.AddPasswordField("Password", current.Password, 30, '*', nil)
	form.AddInputField("Database", current.Database, 30, nil, nil)

	closeForm := func() {
		a.overlay = false
		a.app.SetRoot(a.root, true)
		a.app.SetFocus(a.editor)
	}
	form.AddButton("Save", func() {
		fields := settings.ConnectionSettings{
			Host:     inputText(form, "Host"),
			User:     inputText(form, "User"),
			Password: inputText(form, "Password"),
			Database: inputText(form, "Database"),
		}
		saved, err := a.ctrl.SaveConnectionSettings(context.Background(), fields)
		closeForm()
		if err != nil {
			a.log.Error().Err(err).Msg("saving connection settings")
			a.setStatus("[red]Failed to save connection: %v", err)
			return
		}
		a.setStatus("[green]Saved![white] %s@%s/%s", tview.Escape(saved.User), tview.Escape(saved.Host), tview.Escape(saved.Database))
	})
	form.AddButton("Cancel", closeForm)
	form.SetCancelFunc(closeForm)
	form.SetBorder(true).SetTitle("Database Connection")

	frame := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(form, 13, 0, true).
			AddItem(nil, 0, 1, false), 50, 0, true).
		AddItem(nil, 0, 1, false)

	a.overlay = true
	a.app.SetRoot(frame, true)
	a.app.SetFocus(form)
}

func inputText(form *tview.Form, label string) string {
	if f, ok := form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return f.GetText()
	}
	return ""
}

func (a *App) showHelp() {
	modal := tview.NewModal().
		SetText(helpText).
		AddButtons([]string{"Close"}).
		SetDoneFunc(func(int, string) {
			a.overlay = false
			a.app.SetRoot(a.root, true)
			a.app.SetFocus(a.editor)
		})
	a.overlay = true
	a.app.SetRoot(modal, true)
}

// exportLast writes the last answer to askdb_export_<unix>.json
func (a *App) exportLast() {
	resp := a.ctrl.LastResponse()
	if resp == nil {
		a.setStatus("[yellow]No results to export")
		return
	}
	filename := fmt.Sprintf("askdb_export_%d.json", time.Now().Unix())
	f, err := os.Create(filename)
	if err != nil {
		a.setStatus("[red]Failed to export: %v", err)
		return
	}
	defer f.Close()
	if err := render.Write(f, resp, render.FormatJSON); err != nil {
		a.setStatus("[red]Failed to export: %v", err)
		return
	}
	a.log.Info().Str("file", filename).Int("rows", len(resp.QueryResult)).Msg("exported answer")
	a.setStatus("[green]Exported %d rows to %s", len(resp.QueryResult), filename)
}

func (a *App) globalKeys(ev *tcell.EventKey) *tcell.EventKey {
	if a.overlay {
		return ev
	}
	focus := a.app.GetFocus()

	switch ev.Key() {
	case tcell.KeyF1:
		a.showHelp()
		return nil
	case tcell.KeyCtrlQ:
		a.app.Stop()
		return nil
	case tcell.KeyCtrlE:
		a.exportLast()
		return nil
	case tcell.KeyCtrlO:
		a.showConnectionForm()
		return nil
	case tcell.KeyTab:
		a.cycleFocus(focus)
		return nil
	case tcell.KeyEnter:
		if focus == a.editor {
			a.runQuery(a.editor.GetText())
			return nil
		}
	}

	if ev.Rune() == '?' && focus != a.editor {
		a.showHelp()
		return nil
	}
	return ev
}

func (a *App) cycleFocus(focus tview.Primitive) {
	switch focus {
	case a.editor:
		a.app.SetFocus(a.submitBtn)
	case a.submitBtn:
		a.app.SetFocus(a.historyList)
	case a.historyList:
		a.app.SetFocus(a.resultsTable)
	case a.resultsTable:
		a.app.SetFocus(a.detailView)
	case a.detailView:
		a.app.SetFocus(a.explanationView)
	default:
		a.app.SetFocus(a.editor)
	}
}
