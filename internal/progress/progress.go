// Package progress reports upload and download progress to a terminal
// (progress bars) or to the dashboard (event bus).
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/studyvault/notesdash/internal/events"
)

// Reporter is the interface for reporting transfer progress.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// CLIProgress implements progress reporting for CLI mode using progress bars.
type CLIProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter writing to stderr.
func NewCLIProgress() *CLIProgress {
	return &CLIProgress{out: os.Stderr}
}

// Start initializes the progress bar with total size and description.
// A total of -1 renders a spinner for unknown sizes.
func (p *CLIProgress) Start(total int64, description string) {
	p.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Update updates the progress bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// SetDescription updates the progress bar description.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// EventProgress publishes progress to the event bus for the dashboard.
type EventProgress struct {
	eventBus  *events.EventBus
	name      string
	direction string
	total     int64
}

// NewEventProgress creates a bus-backed reporter for one transfer.
// direction is "upload" or "download".
func NewEventProgress(eventBus *events.EventBus, name, direction string) *EventProgress {
	return &EventProgress{eventBus: eventBus, name: name, direction: direction}
}

// Start publishes the initial zero-progress event.
func (p *EventProgress) Start(total int64, description string) {
	p.total = total
	p.eventBus.PublishProgress(p.name, p.direction, 0, total, false)
}

// Update publishes the current byte count.
func (p *EventProgress) Update(current int64) {
	p.eventBus.PublishProgress(p.name, p.direction, current, p.total, false)
}

// Finish publishes completion.
func (p *EventProgress) Finish() {
	p.eventBus.PublishProgress(p.name, p.direction, p.total, p.total, true)
}

// Error publishes a terminal progress event plus a log entry.
func (p *EventProgress) Error(err error) {
	if err == nil {
		return
	}
	p.eventBus.PublishProgress(p.name, p.direction, 0, p.total, true)
	p.eventBus.PublishLog(events.ErrorLevel, fmt.Sprintf("%s %s failed", p.direction, p.name), err)
}

// SetDescription renames the transfer shown in the dashboard.
func (p *EventProgress) SetDescription(desc string) {
	p.name = desc
}

// NoOpProgress is a progress reporter that does nothing (for background/silent operations).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}
func (p *NoOpProgress) SetDescription(desc string)            {}

// OrNoOp returns r, or a no-op reporter when r is nil.
func OrNoOp(r Reporter) Reporter {
	if r == nil {
		return NewNoOpProgress()
	}
	return r
}

// ProgressReader wraps an io.Reader to report progress.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	total    int64
	current  int64
}

// NewProgressReader creates a new progress-reporting reader.
func NewProgressReader(reader io.Reader, total int64, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   reader,
		reporter: OrNoOp(reporter),
		total:    total,
	}
}

// Read implements io.Reader interface with progress reporting.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	pr.reporter.Update(pr.current)
	return n, err
}

// Current returns the number of bytes read so far.
func (pr *ProgressReader) Current() int64 {
	return pr.current
}
