package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	notesapi "github.com/studyvault/notesdash/internal/api"
	"github.com/studyvault/notesdash/internal/dashboard"
	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/progress"
	"github.com/studyvault/notesdash/internal/storage"
	"github.com/studyvault/notesdash/internal/view"
)

// fakeAPI is an in-memory notes server.
type fakeAPI struct {
	mu      sync.Mutex
	files   []models.FileRecord
	calls   []string
	listErr error
	nextID  int
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) called(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListFiles(ctx context.Context, subject string) ([]models.FileRecord, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.FileRecord(nil), f.files...), nil
}

func (f *fakeAPI) UploadFile(ctx context.Context, upload models.UploadRequest, reporter progress.Reporter) (*models.FileRecord, error) {
	f.record("upload " + upload.Title)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	rec := models.FileRecord{
		ID:           fmt.Sprintf("new%d", f.nextID),
		Title:        upload.Title,
		Subject:      upload.Subject,
		Type:         strings.ToUpper(strings.TrimPrefix(filepath.Ext(upload.Path), ".")),
		OriginalName: filepath.Base(upload.Path),
		UploadDate:   "2024-03-01T10:00:00Z",
	}
	f.files = append(f.files, rec)
	return &rec, nil
}

func (f *fakeAPI) UpdateFile(ctx context.Context, id string, update models.UpdateRequest) (*models.FileRecord, error) {
	f.record("update " + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.files {
		if f.files[i].ID == id {
			if update.Title != nil {
				f.files[i].Title = *update.Title
			}
			rec := f.files[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("file not found")
}

func (f *fakeAPI) DeleteFile(ctx context.Context, id string) error {
	f.record("delete " + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.files {
		if f.files[i].ID == id {
			f.files = append(f.files[:i], f.files[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("file not found")
}

func (f *fakeAPI) DownloadFile(ctx context.Context, id string, reporter progress.Reporter) (*models.Blob, error) {
	f.record("download " + id)
	return &models.Blob{Data: []byte("notes for " + id)}, nil
}

func (f *fakeAPI) CheckHealth(ctx context.Context) (*models.TestStatus, error) {
	f.record("health")
	return &models.TestStatus{Message: "API is working!"}, nil
}

func sampleFiles() []models.FileRecord {
	return []models.FileRecord{
		{ID: "a1", Title: "Week 1 Intro", Subject: "java", Type: "PDF", OriginalName: "week1.pdf", UploadDate: "2024-01-15T10:00:00Z"},
		{ID: "b2", Title: "Loops", Subject: "python", Type: "DOCX", OriginalName: "loops.docx", UploadDate: "2024-02-01T09:30:00Z"},
	}
}

func newTestModel(t *testing.T, api *fakeAPI) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	runner := dashboard.NewRunner(api, storage.NewLocalSaver(dir), nil, nil, nil, nil)
	m := New(context.Background(), Options{Runner: runner, BaseURL: "http://notes.test"})
	m.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return m, dir
}

// exec runs cmd and every command it leads to, feeding the messages back
// through Update. Timers that do not fire quickly are dropped.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		done := make(chan tea.Msg, 1)
		go func() { done <- c() }()
		var msg tea.Msg
		select {
		case msg = <-done:
		case <-time.After(300 * time.Millisecond):
			continue
		}

		switch msg := msg.(type) {
		case nil, spinner.TickMsg, toastTickMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		next, nc := m.Update(msg)
		m = next.(Model)
		queue = append(queue, nc)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, cmd := m.Update(msg)
		m = exec(t, next.(Model), cmd)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = exec(t, next.(Model), cmd)
	}
	return m
}

func started(t *testing.T, api *fakeAPI) (Model, string) {
	t.Helper()
	m, dir := newTestModel(t, api)
	cmd := m.runEffects(dashboard.Start())
	return exec(t, m, cmd), dir
}

func TestInitLoadsTableAndHealth(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	if !m.State().Loaded {
		t.Fatal("files were not loaded")
	}
	if !m.State().APIReachable {
		t.Error("health check result was not applied")
	}
	if got, want := m.rowIDs, []string{"a1", "b2"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rows = %v, want %v", got, want)
	}
	if v, _ := m.State().Surface.Counter(view.IDTotalFiles); v != "2" {
		t.Errorf("total-files = %q, want 2", v)
	}

	out := m.View()
	for _, want := range []string{"Week 1 Intro", "Loops", "http://notes.test"} {
		if !strings.Contains(out, want) {
			t.Errorf("view is missing %q", want)
		}
	}
}

func TestEmptyCatalogShowsPlaceholder(t *testing.T) {
	m, _ := started(t, &fakeAPI{})
	if !strings.Contains(m.View(), view.EmptyTableMessage) {
		t.Errorf("view does not show %q", view.EmptyTableMessage)
	}
}

func TestSearchFiltersRows(t *testing.T) {
	m, _ := started(t, &fakeAPI{files: sampleFiles()})

	m = press(t, m, "/")
	if m.mode != modeSearch {
		t.Fatalf("mode = %v, want search", m.mode)
	}
	m = typeText(t, m, "python")
	if len(m.rowIDs) != 1 || m.rowIDs[0] != "b2" {
		t.Errorf("rows after search = %v, want [b2]", m.rowIDs)
	}

	m = press(t, m, "esc")
	if len(m.rowIDs) != 2 {
		t.Errorf("rows after clearing search = %v, want both", m.rowIDs)
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse", m.mode)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	m = press(t, m, "x")
	if m.mode != modeConfirmDelete || m.State().PendingDelete != "a1" {
		t.Fatalf("mode = %v pending = %q, want confirm for a1", m.mode, m.State().PendingDelete)
	}
	if !strings.Contains(m.View(), "Week 1 Intro") {
		t.Error("confirmation does not name the file")
	}

	m = press(t, m, "y")
	if api.called("delete a1") != 1 {
		t.Errorf("delete calls = %v", api.calls)
	}
	if len(m.rowIDs) != 1 || m.rowIDs[0] != "b2" {
		t.Errorf("rows after delete = %v, want [b2]", m.rowIDs)
	}
}

func TestDeleteDeclinedMakesNoRequest(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	m = press(t, m, "x", "n")
	if n := api.called("delete"); n != 0 {
		t.Errorf("delete was called %d time(s)", n)
	}
	if m.mode != modeBrowse || m.State().PendingDelete != "" {
		t.Errorf("mode = %v pending = %q after declining", m.mode, m.State().PendingDelete)
	}
}

func TestDownloadSavesSelectedFile(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, dir := started(t, api)

	m = press(t, m, "down", "d")
	if api.called("download b2") != 1 {
		t.Fatalf("calls = %v, want a download of b2", api.calls)
	}
	data, err := os.ReadFile(filepath.Join(dir, "loops.docx"))
	if err != nil {
		t.Fatalf("download was not saved: %v", err)
	}
	if string(data) != "notes for b2" {
		t.Errorf("saved %q", data)
	}
}

func TestEditSubmitsChangedTitle(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	m = press(t, m, "e")
	if m.mode != modeEdit {
		t.Fatalf("mode = %v, want edit", m.mode)
	}
	if got := m.edit[0].Value(); got != "Week 1 Intro" {
		t.Errorf("title field = %q, want the record title", got)
	}

	m.edit[0].SetValue("Week 1 Revised")
	m = press(t, m, "enter")

	if api.called("update a1") != 1 {
		t.Fatalf("calls = %v, want an update of a1", api.calls)
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse after saving", m.mode)
	}
	if f, _ := m.State().Find("a1"); f.Title != "Week 1 Revised" {
		t.Errorf("title after refresh = %q", f.Title)
	}
}

func TestEditWithEmptyTitleIsRejected(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	m = press(t, m, "e")
	m.edit[0].SetValue("   ")
	m = press(t, m, "enter")

	if n := api.called("update"); n != 0 {
		t.Errorf("update was called %d time(s)", n)
	}
	if m.mode != modeEdit {
		t.Errorf("mode = %v, edit form should stay open", m.mode)
	}
}

func TestUploadFromForm(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	path := filepath.Join(t.TempDir(), "arrays.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "u")
	if m.mode != modeUpload {
		t.Fatalf("mode = %v, want upload", m.mode)
	}
	m.upload[0].SetValue(path)
	m.upload[1].SetValue("Arrays")
	m.upload[2].SetValue("java")
	m = press(t, m, "enter")

	if api.called("upload Arrays") != 1 {
		t.Fatalf("calls = %v, want one upload", api.calls)
	}
	if m.mode != modeBrowse {
		t.Errorf("mode = %v, want browse after upload", m.mode)
	}
	if len(m.rowIDs) != 3 {
		t.Errorf("rows = %v, want the new file listed", m.rowIDs)
	}
	if v := m.upload[1].Value(); v != "" {
		t.Errorf("title field = %q, want it cleared", v)
	}
}

func TestUploadMissingFileMakesNoRequest(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	m = press(t, m, "u")
	m.upload[0].SetValue(filepath.Join(t.TempDir(), "missing.pdf"))
	m.upload[1].SetValue("Arrays")
	m.upload[2].SetValue("java")
	m = press(t, m, "enter")

	if n := api.called("upload"); n != 0 {
		t.Errorf("upload was called %d time(s)", n)
	}
	if m.mode != modeUpload {
		t.Errorf("mode = %v, form should stay open", m.mode)
	}
}

func TestListFailureKeepsRows(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	api.mu.Lock()
	api.listErr = fmt.Errorf("connection refused")
	api.mu.Unlock()

	m = press(t, m, "r")
	if len(m.rowIDs) != 2 {
		t.Errorf("rows = %v, want the previous rows kept", m.rowIDs)
	}
	if m.State().Loading {
		t.Error("still loading after the failure")
	}
}

func TestColumnsFillWidth(t *testing.T) {
	tests := []struct {
		width     int
		wantTitle int
	}{
		{width: 120, wantTitle: 66},
		{width: 40, wantTitle: 16},
	}
	for _, tt := range tests {
		cols := columns(tt.width)
		if cols[0].Width != tt.wantTitle {
			t.Errorf("columns(%d) title width = %d, want %d", tt.width, cols[0].Width, tt.wantTitle)
		}
	}
}

func TestCursorStartsOnFirstRowAfterLoad(t *testing.T) {
	m, _ := newTestModel(t, &fakeAPI{})

	// The health result lands before the list, while the table is empty
	next, _ := m.Update(commandMsg{cmd: dashboard.HealthChecked{Status: &models.TestStatus{Message: "API is working!"}}})
	m = next.(Model)
	next, _ = m.Update(commandMsg{cmd: dashboard.Loaded{Files: sampleFiles()}})
	m = next.(Model)

	if got := m.selectedID(); got != "a1" {
		t.Fatalf("selected = %q, want a1", got)
	}
	m = press(t, m, "down")
	if got := m.selectedID(); got != "b2" {
		t.Errorf("selected after down = %q, want b2", got)
	}
}

func TestCatalogEventsMarkStaleList(t *testing.T) {
	m, _ := started(t, &fakeAPI{files: sampleFiles()})

	next, _ := m.Update(busMsg{event: &events.CatalogEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventCatalogError, Time: time.Now()},
		Total:     2,
		Err:       fmt.Errorf("connection refused"),
	}})
	m = next.(Model)
	if !strings.Contains(m.View(), "showing 2 file(s) from the last successful load") {
		t.Error("stale list is not flagged after a failed load")
	}

	next, _ = m.Update(busMsg{event: &events.CatalogEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventCatalogChanged, Time: time.Now()},
		Total:     2,
	}})
	m = next.(Model)
	if m.stale != "" {
		t.Errorf("stale = %q after a successful load", m.stale)
	}
}

func TestProgressEventShowsPercentage(t *testing.T) {
	m, _ := started(t, &fakeAPI{})

	next, _ := m.Update(busMsg{event: &events.ProgressEvent{
		BaseEvent:    events.BaseEvent{EventType: events.EventProgress, Time: time.Now()},
		Name:         "loops.docx",
		Direction:    "download",
		BytesCurrent: 512,
		BytesTotal:   1024,
	}})
	m = next.(Model)
	if !strings.HasPrefix(m.transfer, "Downloading loops.docx") || !strings.HasSuffix(m.transfer, "(50%)") {
		t.Errorf("transfer = %q", m.transfer)
	}
}

func TestUnauthorizedLoadWarnsAboutToken(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	api.mu.Lock()
	api.listErr = &notesapi.NetworkError{Op: "Load files", StatusCode: 401, Status: "401 Unauthorized"}
	api.mu.Unlock()

	m = press(t, m, "r")
	if !strings.Contains(m.warning, "API token") {
		t.Errorf("warning = %q, want a token hint", m.warning)
	}
}

func TestDismissClearsToasts(t *testing.T) {
	api := &fakeAPI{files: sampleFiles()}
	m, _ := started(t, api)

	m = press(t, m, "x", "y")
	if !m.runner.Toaster().Pending() {
		t.Fatal("delete did not show a toast")
	}
	m = press(t, m, "c")
	if m.runner.Toaster().Pending() || len(m.toasts) != 0 {
		t.Error("toasts still shown after dismissing")
	}
}
