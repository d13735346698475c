package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// TransferUI manages concurrent per-file progress bars for batch
// `files download` and `files upload` runs.
type TransferUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	verb       string // "Downloading" or "Uploading"
	totalFiles int
	completed  int32
	failed     int32
}

// NewTransferUI creates a UI for totalFiles transfers. verb labels
// non-terminal output lines.
func NewTransferUI(totalFiles int, verb string) *TransferUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		// Non-TTY: bars are discarded, text lines go to stderr
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &TransferUI{
		progress:   p,
		out:        os.Stderr,
		isTerminal: isTerminal,
		verb:       verb,
		totalFiles: totalFiles,
	}
}

// FileBar is a single file's bar. It implements Reporter.
type FileBar struct {
	ui        *TransferUI
	bar       *mpb.Bar
	index     int
	label     string
	size      int64
	current   int64
	startTime time.Time
}

// AddFileBar registers a transfer. The size may be unknown (0) until Start.
func (u *TransferUI) AddFileBar(index int, label string) *FileBar {
	return &FileBar{ui: u, index: index, label: label, startTime: time.Now()}
}

// Start creates the mpb bar once the size is known.
func (f *FileBar) Start(total int64, description string) {
	if description != "" {
		f.label = description
	}
	f.size = total
	f.startTime = time.Now()

	if !f.ui.isTerminal {
		fmt.Fprintf(f.ui.out, "%s [%d/%d]: %s (%s)\n",
			f.ui.verb, f.index, f.ui.totalFiles, truncatePath(f.label, 2), humanize.IBytes(uint64(maxInt64(total, 0))))
		return
	}

	f.bar = f.ui.progress.New(maxInt64(total, 0),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return fmt.Sprintf("[%d/%d] %s", f.index, f.ui.totalFiles, truncatePath(f.label, 2))
			}, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
			decor.Name("  "),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.BarRemoveOnComplete(),
	)
}

// Update moves the bar to current bytes.
func (f *FileBar) Update(current int64) {
	f.current = current
	if f.bar != nil {
		f.bar.SetCurrent(current)
	}
}

// Finish marks the transfer complete and prints a summary line above the bars.
func (f *FileBar) Finish() {
	if f.bar != nil {
		f.bar.SetTotal(f.current, true)
	}
	elapsed := time.Since(f.startTime).Round(time.Millisecond)
	f.ui.println(fmt.Sprintf("✓ %s (%s, %s)", truncatePath(f.label, 2), humanize.IBytes(uint64(maxInt64(f.current, 0))), elapsed))
	atomic.AddInt32(&f.ui.completed, 1)
}

// Error aborts the bar and prints the failure.
func (f *FileBar) Error(err error) {
	if err == nil {
		return
	}
	if f.bar != nil {
		f.bar.Abort(false)
	}
	f.ui.println(fmt.Sprintf("✗ %s: %v", truncatePath(f.label, 2), err))
	atomic.AddInt32(&f.ui.failed, 1)
}

// SetDescription relabels the bar.
func (f *FileBar) SetDescription(desc string) {
	f.label = desc
}

// println writes through mpb so output does not tear the bars.
func (u *TransferUI) println(msg string) {
	if u.isTerminal && u.progress != nil {
		fmt.Fprintln(u.progress, msg)
		return
	}
	fmt.Fprintln(u.out, msg)
}

// Wait blocks until all progress bars complete
func (u *TransferUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Completed returns the number of finished transfers.
func (u *TransferUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

// Failed returns the number of transfers that reported an error.
func (u *TransferUI) Failed() int {
	return int(atomic.LoadInt32(&u.failed))
}

// truncatePath keeps the last maxComponents path elements, prefixed with "…/".
func truncatePath(path string, maxComponents int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= maxComponents {
		return filepath.Base(path)
	}
	return "…/" + strings.Join(parts[len(parts)-maxComponents:], "/")
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
