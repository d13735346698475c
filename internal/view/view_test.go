package view

import (
	"strings"
	"testing"
	"time"

	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/models"
)

func sampleFiles() []models.FileRecord {
	return []models.FileRecord{
		{ID: "1", Title: "Week 1 Notes", Subject: "java", Type: "PDF", UploadDate: "2024-03-05T10:00:00"},
		{ID: "2", Title: "Loops", Subject: "python", Type: "TXT", UploadDate: "2024-03-06T10:00:00"},
		{ID: "3", Title: "Sonnets", Subject: "poetry", Type: "DOCX", UploadDate: "2024-03-07T10:00:00"},
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Bytes"},
		{1, "1 Bytes"},
		{1023, "1023 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1100, "1.07 KB"},
		{1048576, "1 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{2048 * 1024 * 1024 * 1024, "2048 GB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.in); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate("2024-03-05T10:00:00"); got != "03/05/2024" {
		t.Errorf("FormatDate() = %q", got)
	}
	if got := FormatDate("yesterday"); got != "Invalid Date" {
		t.Errorf("FormatDate(bad) = %q", got)
	}
}

func TestRenderStats(t *testing.T) {
	s := NewSurface()
	files := sampleFiles()
	RenderStats(s, files, catalog.Recompute(files))

	want := map[string]string{
		IDTotalFiles:            "3",
		IDTotalSubjects:         "3",
		SubjectCountID("java"):  "1",
		SubjectCountID("tamil"): "0",
	}
	for id, v := range want {
		if got, _ := s.Counter(id); got != v {
			t.Errorf("counter %s = %q, want %q", id, got, v)
		}
	}
	if _, ok := s.Counter(SubjectCountID("poetry")); ok {
		t.Error("unknown subjects must not get a counter")
	}
}

func TestRenderTableEmptyShowsPlaceholder(t *testing.T) {
	s := NewSurface()
	RenderTable(s, sampleFiles())
	RenderTable(s, nil)

	if s.Placeholder != EmptyTableMessage || !s.PlaceholderVisible || len(s.Rows) != 0 {
		t.Errorf("Placeholder=%q visible=%v rows=%d", s.Placeholder, s.PlaceholderVisible, len(s.Rows))
	}
}

func TestSearchFiltersPlaceholderRow(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"UPLOADED", true},
		{"loops", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			s := NewSurface()
			ApplySearch(s, tt.query)
			RenderTable(s, nil)
			if s.PlaceholderVisible != tt.want {
				t.Errorf("PlaceholderVisible = %v, want %v", s.PlaceholderVisible, tt.want)
			}

			RenderTable(s, sampleFiles())
			if s.PlaceholderVisible {
				t.Error("placeholder visible next to rows")
			}
		})
	}
}

func TestRenderTableReappliesSearch(t *testing.T) {
	s := NewSurface()
	ApplySearch(s, "loops")
	RenderTable(s, sampleFiles())

	visible := VisibleRows(s)
	if len(visible) != 1 || visible[0].ID != "2" {
		t.Errorf("visible rows = %+v", visible)
	}
}

func TestApplySearch(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3"}},
		{"WEEK", []string{"1"}},
		{"pdf", []string{"1"}},
		{"03/06", []string{"2"}},
		{"poetry", []string{"3"}},
		{"download", []string{"1", "2", "3"}},
		{"edit delete", []string{"1", "2", "3"}},
		{"chemistry", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			s := NewSurface()
			RenderTable(s, sampleFiles())
			ApplySearch(s, tt.query)

			var got []string
			for _, r := range VisibleRows(s) {
				got = append(got, r.ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("visible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplySearchIdempotent(t *testing.T) {
	s := NewSurface()
	RenderTable(s, sampleFiles())
	ApplySearch(s, "o")
	once := s.Clone()
	ApplySearch(s, "o")

	for i := range s.Rows {
		if s.Rows[i] != once.Rows[i] {
			t.Fatalf("row %d changed on second apply: %+v vs %+v", i, s.Rows[i], once.Rows[i])
		}
	}
}

func TestApplySearchNoMatchLeavesDataAlone(t *testing.T) {
	s := NewSurface()
	files := sampleFiles()
	RenderStats(s, files, catalog.Recompute(files))
	RenderTable(s, files)

	ApplySearch(s, "zzz")

	if len(VisibleRows(s)) != 0 {
		t.Error("expected zero visible rows")
	}
	if len(s.Rows) != 3 {
		t.Errorf("rows = %d, want 3", len(s.Rows))
	}
	if v, _ := s.Counter(IDTotalFiles); v != "3" {
		t.Errorf("total-files = %q", v)
	}
}

func TestRenderSelectedFiles(t *testing.T) {
	s := NewSurface()
	RenderSelectedFiles(s, []models.LocalFile{{Name: "a.pdf", Size: 1536}, {Name: "b.txt", Size: 0}})

	if !s.FileInfoActive {
		t.Fatal("preview should be active")
	}
	want := []string{"a.pdf (1.5 KB)", "b.txt (0 Bytes)"}
	if strings.Join(s.SelectedFiles, "|") != strings.Join(want, "|") {
		t.Errorf("SelectedFiles = %v", s.SelectedFiles)
	}

	RenderSelectedFiles(s, nil)
	if s.FileInfoActive {
		t.Error("empty selection should deactivate preview")
	}
}

func TestEditForm(t *testing.T) {
	s := NewSurface()
	OpenEditForm(s, models.FileRecord{ID: "9", Title: "T", Subject: "css", URL: "https://x"})
	if !s.Edit.Open || s.Edit.FileID != "9" || s.Edit.Description != "" || s.Edit.URL != "https://x" {
		t.Errorf("Edit = %+v", s.Edit)
	}
	CloseEditForm(s)
	if s.Edit.Open || s.Edit.FileID != "" {
		t.Errorf("Edit after close = %+v", s.Edit)
	}
}

func TestSubmitLabel(t *testing.T) {
	f := UploadForm{}
	if f.SubmitLabel() != SubmitLabel || !f.SubmitEnabled() {
		t.Error("idle form")
	}
	f.Submitting = true
	if f.SubmitLabel() != SubmittingLabel || f.SubmitEnabled() {
		t.Error("submitting form")
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingForwarder struct{ got []string }

func (r *recordingForwarder) Toast(kind events.ToastKind, msg string) {
	r.got = append(r.got, string(kind)+":"+msg)
}

func TestToastLifecycle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fwd := &recordingForwarder{}
	toaster := NewToaster(nil, fwd)
	toaster.SetClock(clock.now)

	toaster.Error("API connection failed")

	steps := []struct {
		advance time.Duration
		want    events.ToastPhase
		count   int
	}{
		{0, events.ToastShown, 1},
		{99 * time.Millisecond, events.ToastShown, 1},
		{1 * time.Millisecond, events.ToastVisible, 1},
		{3899 * time.Millisecond, events.ToastVisible, 1},
		{1 * time.Millisecond, events.ToastFading, 1},
		{299 * time.Millisecond, events.ToastFading, 1},
		{1 * time.Millisecond, events.ToastRemoved, 0},
	}
	for i, st := range steps {
		clock.advance(st.advance)
		active := toaster.Active()
		if len(active) != st.count {
			t.Fatalf("step %d: %d active toasts, want %d", i, len(active), st.count)
		}
		if st.count > 0 && active[0].Phase != st.want {
			t.Errorf("step %d: phase %s, want %s", i, active[0].Phase, st.want)
		}
	}
	if toaster.Pending() {
		t.Error("toaster should be empty")
	}
	if len(fwd.got) != 1 || fwd.got[0] != "error:API connection failed" {
		t.Errorf("forwarded = %v", fwd.got)
	}
}

func TestToastPublishesPhaseChanges(t *testing.T) {
	bus := events.NewEventBus(16)
	defer bus.Close()
	ch := bus.Subscribe(events.EventToast)

	clock := &fakeClock{t: time.Unix(0, 0)}
	toaster := NewToaster(bus, nil)
	toaster.SetClock(clock.now)

	toaster.Success("Download started")
	clock.advance(5 * time.Second)
	toaster.Active()

	var phases []events.ToastPhase
	for len(ch) > 0 {
		phases = append(phases, (<-ch).(*events.ToastEvent).Phase)
	}
	if len(phases) != 2 || phases[0] != events.ToastShown || phases[1] != events.ToastRemoved {
		t.Errorf("phases = %v", phases)
	}
}

func TestToastViewSkipsFadeIn(t *testing.T) {
	out := ToastView([]ActiveToast{
		{Toast: Toast{Message: "hidden"}, Phase: events.ToastShown},
		{Toast: Toast{Message: "File deleted successfully", Kind: events.ToastSuccess}, Phase: events.ToastVisible},
	})
	if strings.Contains(out, "hidden") || !strings.Contains(out, "File deleted successfully") {
		t.Errorf("ToastView = %q", out)
	}
}

func TestAge(t *testing.T) {
	now := time.Date(2024, 3, 8, 10, 0, 0, 0, time.Local)
	r := Row{Uploaded: now.Add(-72 * time.Hour)}
	if got := Age(r, now); got != "3 days ago" {
		t.Errorf("Age() = %q", got)
	}
	if Age(Row{}, now) != "" {
		t.Error("zero upload time should render empty")
	}
}
