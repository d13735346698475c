package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyvault/notesdash/internal/version"
	"github.com/studyvault/notesdash/internal/view"
)

// tableChrome is the number of screen lines used around the table.
const tableChrome = 22

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F46E5")).
			Padding(0, 1)

	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4F46E5")).
			Padding(0, 1)
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4F46E5")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#4F46E5")).
		Bold(false)
	return s
}

// columns sizes the table to width. The title column takes the slack.
func columns(width int) []table.Column {
	fixed := 14 + 6 + 10 + 14 + 10
	title := width - fixed
	if title < 16 {
		title = 16
	}
	return []table.Column{
		{Title: "Title", Width: title},
		{Title: "Subject", Width: 14},
		{Title: "Type", Width: 6},
		{Title: "Date", Width: 10},
		{Title: "Uploaded", Width: 14},
	}
}

// View renders the dashboard.
func (m Model) View() string {
	s := m.state.Surface
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(view.StatsLine(s))
	b.WriteString("\n")
	b.WriteString(view.SubjectGrid(s, m.width))
	b.WriteString("\n")

	if banner := view.UploadBanner(s); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	if m.mode == modeSearch || s.SearchQuery != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	switch {
	case s.Placeholder != "":
		if s.PlaceholderVisible {
			b.WriteString(mutedStyle.Render(s.Placeholder))
		}
	case !m.state.Loaded:
		b.WriteString(m.spinner.View() + " Loading files...")
	case len(m.rowIDs) == 0:
		b.WriteString(mutedStyle.Render("No files match the search"))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.transfer != "" {
		b.WriteString(m.spinner.View() + " " + m.transfer + "\n")
	}

	switch m.mode {
	case modeUpload:
		b.WriteString(m.uploadView())
	case modeEdit:
		b.WriteString(m.editView())
	case modeConfirmDelete:
		b.WriteString(m.confirmView())
	}

	if toasts := view.ToastView(m.toasts); toasts != "" {
		b.WriteString("\n")
		b.WriteString(toasts)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) headerView() string {
	status := mutedStyle.Render("○ checking " + m.baseURL)
	switch {
	case m.state.APIReachable:
		status = okStyle.Render("● " + m.baseURL)
	case m.state.APIStatus != "":
		status = badStyle.Render("● " + m.baseURL + " unreachable")
	}
	header := titleStyle.Render("Notes Dashboard "+version.Version) + "  " + status
	if m.state.Loading && m.state.Loaded {
		header += "  " + m.spinner.View()
	}
	if m.stale != "" {
		header += "  " + warningStyle.Render(m.stale)
	}
	if m.warning != "" {
		header += "  " + warningStyle.Render(m.warning)
	}
	return header
}

func (m Model) uploadView() string {
	form := m.state.Surface.Form
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Upload File")}
	for _, in := range m.upload {
		lines = append(lines, in.View())
	}
	if m.state.Surface.FileInfoActive {
		for _, f := range m.state.Surface.SelectedFiles {
			lines = append(lines, mutedStyle.Render("  "+f))
		}
	}
	submit := fmt.Sprintf("[ %s ]", form.SubmitLabel())
	if !form.SubmitEnabled() {
		submit = mutedStyle.Render(submit)
	}
	lines = append(lines, "", submit+mutedStyle.Render("  enter submit · tab next · esc close"))
	return panelStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func (m Model) editView() string {
	lines := []string{lipgloss.NewStyle().Bold(true).Render("Edit File")}
	for _, in := range m.edit {
		lines = append(lines, in.View())
	}
	label := "[ Save ]"
	if m.state.EditSaving {
		label = mutedStyle.Render("[ Saving... ]")
	}
	lines = append(lines, "", label+mutedStyle.Render("  enter save · tab next · esc cancel"))
	return panelStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func (m Model) confirmView() string {
	name := m.state.PendingDelete
	if f, ok := m.state.Find(m.state.PendingDelete); ok {
		name = f.Title
	}
	return panelStyle.Render(fmt.Sprintf("Are you sure you want to delete %q? (y/n)", name)) + "\n"
}
