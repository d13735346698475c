package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/events"
)

var (
	accentColor = lipgloss.Color("#4F46E5")
	mutedColor  = lipgloss.Color("#808080")

	statLabelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	statValueStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)

	subjectCellStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#444444")).
				Padding(0, 1).
				Width(26)

	successToastStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#10B981")).
				Padding(0, 2)
	errorToastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#EF4444")).
			Padding(0, 2)
	fadingToastStyle = lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 2)

	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
)

// counter returns the displayed value of id, or "-" when unset.
func (s *Surface) counter(id string) string {
	if v, ok := s.Counters[id]; ok {
		return v
	}
	return "-"
}

// StatsLine renders the total counters on one line.
func StatsLine(s *Surface) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		statLabelStyle.Render("Total files "),
		statValueStyle.Render(s.counter(IDTotalFiles)),
		statLabelStyle.Render("   Subjects "),
		statValueStyle.Render(s.counter(IDTotalSubjects)),
	)
}

// SubjectGrid renders one cell per known subject with its count, wrapped
// to fit width.
func SubjectGrid(s *Surface, width int) string {
	cellWidth := subjectCellStyle.GetWidth() + 2
	perRow := 1
	if width > cellWidth {
		perRow = width / cellWidth
	}

	var (
		rows []string
		line []string
	)
	for _, subj := range catalog.Subjects {
		cell := subjectCellStyle.Render(fmt.Sprintf("%s\n%s files",
			truncate(subj.Title, subjectCellStyle.GetWidth()-2),
			statValueStyle.Render(s.counter(SubjectCountID(subj.Key)))))
		line = append(line, cell)
		if len(line) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
			line = nil
		}
	}
	if len(line) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// ToastView renders the toast stack, newest last. Toasts that are still
// fading in are not drawn.
func ToastView(toasts []ActiveToast) string {
	var lines []string
	for _, t := range toasts {
		switch {
		case t.Phase == events.ToastShown:
			continue
		case t.Phase == events.ToastFading:
			lines = append(lines, fadingToastStyle.Render(t.Message))
		case t.Kind == events.ToastError:
			lines = append(lines, errorToastStyle.Render(t.Message))
		default:
			lines = append(lines, successToastStyle.Render(t.Message))
		}
	}
	return strings.Join(lines, "\n")
}

// UploadBanner renders the upload-success banner, or "" when hidden.
func UploadBanner(s *Surface) string {
	if !s.UploadSuccessVisible {
		return ""
	}
	return bannerStyle.Render("✓ File uploaded successfully!")
}

// Age renders how long ago a row was uploaded, relative to now.
func Age(r Row, now time.Time) string {
	if r.Uploaded.IsZero() {
		return ""
	}
	return humanize.RelTime(r.Uploaded, now, "ago", "from now")
}

func truncate(s string, n int) string {
	if n <= 1 || len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
