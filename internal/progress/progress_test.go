package progress

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/studyvault/notesdash/internal/events"
)

type recordingReporter struct {
	updates []int64
}

func (r *recordingReporter) Start(int64, string)   {}
func (r *recordingReporter) Update(current int64)  { r.updates = append(r.updates, current) }
func (r *recordingReporter) Finish()               {}
func (r *recordingReporter) Error(error)           {}
func (r *recordingReporter) SetDescription(string) {}

func TestProgressReaderReportsCumulativeBytes(t *testing.T) {
	rec := &recordingReporter{}
	pr := NewProgressReader(strings.NewReader("hello world"), 11, rec)

	buf := make([]byte, 4)
	for {
		_, err := pr.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	if pr.Current() != 11 {
		t.Errorf("Current() = %d, want 11", pr.Current())
	}
	last := rec.updates[len(rec.updates)-1]
	if last != 11 {
		t.Errorf("last update = %d, want 11", last)
	}
	for i := 1; i < len(rec.updates); i++ {
		if rec.updates[i] < rec.updates[i-1] {
			t.Fatalf("updates not monotonic: %v", rec.updates)
		}
	}
}

func TestProgressReaderNilReporter(t *testing.T) {
	pr := NewProgressReader(strings.NewReader("abc"), 3, nil)
	data, err := io.ReadAll(pr)
	if err != nil || string(data) != "abc" {
		t.Fatalf("ReadAll() = %q, %v", data, err)
	}
}

func TestEventProgressPublishes(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventProgress)

	p := NewEventProgress(bus, "notes.pdf", "upload")
	p.Start(100, "")
	p.Update(40)
	p.Finish()

	var got []*events.ProgressEvent
	for i := 0; i < 3; i++ {
		select {
		case ev := <-ch:
			got = append(got, ev.(*events.ProgressEvent))
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("only %d events received", len(got))
		}
	}

	if got[1].BytesCurrent != 40 || got[1].BytesTotal != 100 {
		t.Errorf("update event = %+v", got[1])
	}
	if !got[2].Done || got[2].Direction != "upload" || got[2].Name != "notes.pdf" {
		t.Errorf("finish event = %+v", got[2])
	}
}

func TestEventProgressErrorLogs(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	logCh := bus.Subscribe(events.EventLog)

	p := NewEventProgress(bus, "notes.pdf", "download")
	p.Error(errors.New("boom"))

	select {
	case ev := <-logCh:
		le := ev.(*events.LogEvent)
		if le.Level != events.ErrorLevel || !strings.Contains(le.Message, "notes.pdf") {
			t.Errorf("log event = %+v", le)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no log event")
	}
}

func TestCLIProgressWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	p := &CLIProgress{out: &buf}
	p.Start(10, "week1.pdf")
	p.Update(10)
	p.Finish()
	p.Error(errors.New("nope"))

	if !strings.Contains(buf.String(), "Error: nope") {
		t.Errorf("output %q missing error line", buf.String())
	}
}

func TestTransferUINonTerminal(t *testing.T) {
	var buf bytes.Buffer
	ui := &TransferUI{out: &buf, verb: "Downloading", totalFiles: 2}

	bar := ui.AddFileBar(1, "/tmp/a/b/week1.pdf")
	bar.Start(2048, "")
	bar.Update(2048)
	bar.Finish()

	bar2 := ui.AddFileBar(2, "week2.pdf")
	bar2.Start(10, "")
	bar2.Error(errors.New("Download failed: 404 NOT FOUND"))

	out := buf.String()
	if !strings.Contains(out, "Downloading [1/2]: …/b/week1.pdf (2.0 KiB)") {
		t.Errorf("missing start line in %q", out)
	}
	if !strings.Contains(out, "✓ …/b/week1.pdf") {
		t.Errorf("missing success line in %q", out)
	}
	if !strings.Contains(out, "✗ week2.pdf: Download failed: 404 NOT FOUND") {
		t.Errorf("missing failure line in %q", out)
	}
	if ui.Completed() != 1 || ui.Failed() != 1 {
		t.Errorf("Completed=%d Failed=%d, want 1/1", ui.Completed(), ui.Failed())
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"file.pdf", "file.pdf"},
		{"a/file.pdf", "file.pdf"},
		{"/x/y/z/file.pdf", "…/z/file.pdf"},
	}
	for _, tt := range tests {
		if got := truncatePath(tt.in, 2); got != tt.want {
			t.Errorf("truncatePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
