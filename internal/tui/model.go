// Package tui is the interactive terminal dashboard. Keys become dashboard
// commands, effects run as tea.Cmds, and their results come back as
// commandMsg.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/studyvault/notesdash/internal/api"
	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/dashboard"
	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/view"
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeUpload
	modeEdit
	modeConfirmDelete
)

// Form field order. The first upload field is the local file path.
var (
	uploadFields = []string{view.IDFileInput, view.IDFileTitle, view.IDFileSubject, view.IDFileDescription, view.IDFileURL}
	uploadLabels = []string{"File", "Title", "Subject", "Description", "Link"}
	editFields   = []string{view.IDEditTitle, view.IDEditSubject, view.IDEditDescription, view.IDEditURL}
	editLabels   = []string{"Title", "Subject", "Description", "Link"}
)

// commandMsg carries a dashboard command back into the update loop.
type commandMsg struct {
	cmd dashboard.Command
}

type toastTickMsg time.Time

type busMsg struct {
	event events.Event
}

// Options configures a dashboard.
type Options struct {
	Runner   *dashboard.Runner
	EventBus *events.EventBus // optional; transfer progress and warnings are read from it
	BaseURL  string
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx     context.Context
	runner  *dashboard.Runner
	events  <-chan events.Event
	baseURL string

	state dashboard.State
	mode  mode

	table  table.Model
	rowIDs []string
	search textinput.Model
	upload []textinput.Model
	edit   []textinput.Model
	focus  int

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	toasts   []view.ActiveToast
	ticking  bool
	transfer string
	warning  string
	stale    string // set while the list shown is from before a failed load

	now    func() time.Time
	width  int
	height int
}

// New creates the dashboard model.
func New(ctx context.Context, opts Options) Model {
	t := table.New(
		table.WithColumns(columns(100)),
		table.WithHeight(12),
		table.WithFocused(true),
		table.WithStyles(tableStyles()),
	)

	search := textinput.New()
	search.Placeholder = "Search files..."
	search.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		runner:  opts.Runner,
		baseURL: opts.BaseURL,
		state:   dashboard.NewState(),
		table:   t,
		search:  search,
		upload:  newInputs(uploadLabels),
		edit:    newInputs(editLabels),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		now:     time.Now,
		width:   100,
	}
	m.upload[0].Placeholder = "path/to/notes.pdf"
	m.upload[2].Placeholder = "java, python, ... (see 'notesdash subjects')"
	m.state.Loading = true
	if opts.EventBus != nil {
		m.events = opts.EventBus.SubscribeAll()
	}
	return m
}

func newInputs(labels []string) []textinput.Model {
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("%-12s ", label+":")
		in.CharLimit = 500
		inputs[i] = in
	}
	return inputs
}

// Init checks the server and loads the files.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.runEffects(dashboard.Start()), m.spinner.Tick, m.listen())
}

// dispatch applies cmd and turns the resulting effects into tea.Cmds.
func (m *Model) dispatch(cmd dashboard.Command) tea.Cmd {
	var effects []dashboard.Effect
	m.state, effects = dashboard.Update(m.state, cmd)
	m.syncTable()
	return m.runEffects(effects)
}

func (m *Model) runEffects(effects []dashboard.Effect) tea.Cmd {
	var cmds []tea.Cmd
	runner, ctx := m.runner, m.ctx
	for _, eff := range effects {
		switch e := eff.(type) {
		case dashboard.ShowToast:
			// Showing a toast does no I/O
			runner.Run(ctx, e)
			cmds = append(cmds, m.startTicking())
		case dashboard.After:
			next := e.Command
			cmds = append(cmds, tea.Tick(e.Delay, func(time.Time) tea.Msg {
				return commandMsg{cmd: next}
			}))
		default:
			if _, ok := eff.(dashboard.ListFiles); ok {
				m.state.Loading = true
			}
			eff := eff
			cmds = append(cmds, func() tea.Msg {
				if next := runner.Run(ctx, eff); next != nil {
					return commandMsg{cmd: next}
				}
				return nil
			})
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) startTicking() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return toastTick()
}

func toastTick() tea.Cmd {
	return tea.Tick(constants.TUIToastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// listen waits for the next event bus message.
func (m Model) listen() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return busMsg{event: ev}
	}
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(msg.Height-tableChrome, 5))
		return m, nil

	case commandMsg:
		cmd := m.dispatch(msg.cmd)
		m.afterResult(msg.cmd)
		return m, cmd

	case toastTickMsg:
		m.toasts = m.runner.Toaster().Active()
		if m.runner.Toaster().Pending() {
			return m, toastTick()
		}
		m.ticking = false
		return m, nil

	case busMsg:
		m.handleEvent(msg.event)
		return m, m.listen()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeUpload:
			return m.updateUpload(msg)
		case modeEdit:
			return m.updateEdit(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

// afterResult closes forms whose work finished.
func (m *Model) afterResult(cmd dashboard.Command) {
	switch c := cmd.(type) {
	case dashboard.UploadSucceeded:
		for i := range m.upload {
			m.upload[i].SetValue("")
		}
		if m.mode == modeUpload {
			m.setMode(modeBrowse)
		}
	case dashboard.EditSucceeded:
		if m.mode == modeEdit && !m.state.Surface.Edit.Open {
			m.setMode(modeBrowse)
		}
	case dashboard.LoadFailed:
		if api.IsUnauthorized(c.Err) {
			m.warning = "The server rejected the API token, run 'notesdash config init'"
		}
	}
}

func (m *Model) handleEvent(ev events.Event) {
	switch e := ev.(type) {
	case *events.ProgressEvent:
		if e.Done {
			m.transfer = ""
			return
		}
		m.transfer = fmt.Sprintf("%s %s  %s", directionLabel(e.Direction), e.Name, view.FormatFileSize(e.BytesCurrent))
		if e.BytesTotal > 0 {
			m.transfer += fmt.Sprintf(" / %s (%.0f%%)", view.FormatFileSize(e.BytesTotal), e.Fraction()*100)
		}
	case *events.CatalogEvent:
		switch e.Type() {
		case events.EventCatalogError:
			m.stale = fmt.Sprintf("showing %d file(s) from the last successful load", e.Total)
		case events.EventCatalogChanged:
			m.stale = ""
		}
	case *events.LogEvent:
		if e.Level >= events.WarnLevel {
			m.warning = e.Message
		}
	}
}

func directionLabel(direction string) string {
	switch direction {
	case "upload":
		return "Uploading"
	case "download":
		return "Downloading"
	}
	return direction
}

func (m *Model) setMode(next mode) {
	m.search.Blur()
	for i := range m.upload {
		m.upload[i].Blur()
	}
	for i := range m.edit {
		m.edit[i].Blur()
	}
	m.mode = next
	m.focus = 0
	switch next {
	case modeSearch:
		m.search.Focus()
	case modeUpload:
		m.upload[0].Focus()
	case modeEdit:
		m.edit[0].Focus()
	}
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.setMode(modeSearch)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Upload):
		m.setMode(modeUpload)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Refresh):
		return m, m.dispatch(dashboard.Refresh{})
	case key.Matches(msg, m.keys.Dismiss):
		m.runner.Toaster().Drain()
		m.toasts = nil
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		cmd := m.dispatch(dashboard.Edit{ID: id})
		if m.state.Surface.Edit.Open {
			e := m.state.Surface.Edit
			for i, v := range []string{e.Title, e.Subject, e.Description, e.URL} {
				m.edit[i].SetValue(v)
			}
			m.setMode(modeEdit)
		}
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		cmd := m.dispatch(dashboard.RequestDelete{ID: id})
		m.setMode(modeConfirmDelete)
		return m, cmd
	case key.Matches(msg, m.keys.Download):
		id := m.selectedID()
		if id == "" {
			return m, nil
		}
		return m, m.dispatch(dashboard.Download{ID: id})
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.setMode(modeBrowse)
		return m, m.dispatch(dashboard.Search{Query: ""})
	case tea.KeyEnter:
		m.setMode(modeBrowse)
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if q := m.search.Value(); q != before {
		return m, tea.Batch(cmd, m.dispatch(dashboard.Search{Query: q}))
	}
	return m, cmd
}

func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.setMode(modeBrowse)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m, m.submitUpload()
	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		var cmd tea.Cmd
		if m.focus == 0 {
			// Leaving the path field refreshes the selected-file preview
			cmd = m.dispatch(dashboard.SelectFiles{Files: stageFile(m.upload[0].Value())})
		}
		m.moveFocus(m.upload, key.Matches(msg, m.keys.Next))
		return m, cmd
	}

	var cmd tea.Cmd
	m.upload[m.focus], cmd = m.upload[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) submitUpload() tea.Cmd {
	cmds := []tea.Cmd{m.dispatch(dashboard.SelectFiles{Files: stageFile(m.upload[0].Value())})}
	for i, field := range uploadFields[1:] {
		cmds = append(cmds, m.dispatch(dashboard.EditUploadField{Field: field, Value: m.upload[i+1].Value()}))
	}
	cmds = append(cmds, m.dispatch(dashboard.SubmitUpload{}))
	return tea.Batch(cmds...)
}

// stageFile turns the typed path into a staged file, or nothing when the
// path does not name a readable regular file.
func stageFile(path string) []models.LocalFile {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	return []models.LocalFile{{Path: path, Name: filepath.Base(path), Size: info.Size()}}
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		cmd := m.dispatch(dashboard.CancelEdit{})
		m.setMode(modeBrowse)
		return m, cmd
	case key.Matches(msg, m.keys.Submit):
		var cmds []tea.Cmd
		for i, field := range editFields {
			cmds = append(cmds, m.dispatch(dashboard.EditField{Field: field, Value: m.edit[i].Value()}))
		}
		cmds = append(cmds, m.dispatch(dashboard.SubmitEdit{}))
		return m, tea.Batch(cmds...)
	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		m.moveFocus(m.edit, key.Matches(msg, m.keys.Next))
		return m, nil
	}

	var cmd tea.Cmd
	m.edit[m.focus], cmd = m.edit[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) moveFocus(inputs []textinput.Model, forward bool) {
	inputs[m.focus].Blur()
	if forward {
		m.focus = (m.focus + 1) % len(inputs)
	} else {
		m.focus = (m.focus - 1 + len(inputs)) % len(inputs)
	}
	inputs[m.focus].Focus()
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.setMode(modeBrowse)
		return m, m.dispatch(dashboard.ConfirmDelete{Confirmed: true})
	case key.Matches(msg, m.keys.Decline):
		m.setMode(modeBrowse)
		return m, m.dispatch(dashboard.ConfirmDelete{Confirmed: false})
	}
	return m, nil
}

// syncTable rebuilds the table from the surface's visible rows.
func (m *Model) syncTable() {
	rows := view.VisibleRows(m.state.Surface)
	now := m.now()

	tableRows := make([]table.Row, len(rows))
	m.rowIDs = make([]string, len(rows))
	for i, r := range rows {
		tableRows[i] = table.Row{r.Title, r.Subject, r.Type, r.Date, view.Age(r, now)}
		m.rowIDs[i] = r.ID
	}
	m.table.SetRows(tableRows)
	// An empty table leaves the cursor at -1.
	switch c := m.table.Cursor(); {
	case len(tableRows) == 0:
	case c < 0:
		m.table.SetCursor(0)
	case c >= len(tableRows):
		m.table.SetCursor(len(tableRows) - 1)
	}
}

// selectedID returns the id of the highlighted row, or "".
func (m Model) selectedID() string {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rowIDs) {
		return ""
	}
	return m.rowIDs[c]
}

// State returns the dashboard state shown by the model.
func (m Model) State() dashboard.State {
	return m.state
}
