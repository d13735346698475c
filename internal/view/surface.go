// Package view keeps the rendered dashboard surface in step with the catalog.
//
// A Surface is a plain value holding what the user currently sees: the
// counters, the files table, the search filter, the staged upload preview
// and the edit form. Front ends (the bubbletea dashboard and the CLI) draw
// from it; nothing in here talks to the network.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/models"
)

// Element ids of the dashboard surface.
const (
	IDFileInput        = "file-input"
	IDUploadForm       = "upload-form"
	IDFilesSearch      = "files-search"
	IDFileInfo         = "file-info"
	IDSelectedFiles    = "selected-files"
	IDFileTitle        = "file-title"
	IDFileSubject      = "file-subject"
	IDFileDescription  = "file-description"
	IDFileURL          = "file-url"
	IDUploadSuccess    = "upload-success"
	IDFilesTableBody   = "files-table-body"
	IDTotalFiles       = "total-files"
	IDTotalSubjects    = "total-subjects"
	IDEditFileID       = "edit-file-id"
	IDEditTitle        = "edit-title"
	IDEditSubject      = "edit-subject"
	IDEditDescription  = "edit-description"
	IDEditURL          = "edit-url"
	IDEditModalOverlay = "edit-modal-overlay"
)

// EmptyTableMessage is the placeholder row text for an empty catalog.
const EmptyTableMessage = "No files uploaded yet"

// RowActions are the action labels every table row carries.
const RowActions = "Edit Delete Download"

// Submit button labels.
const (
	SubmitLabel     = "Upload File"
	SubmittingLabel = "Uploading..."
)

// SubjectCountID returns the counter id for a subject key.
func SubjectCountID(subject string) string {
	return subject + "-count"
}

// Row is one rendered line of the files table.
type Row struct {
	ID           string
	Title        string
	Subject      string
	Type         string
	Date         string // FormatDate(uploadDate)
	OriginalName string
	Uploaded     time.Time // zero when the upload date did not parse
	Visible      bool
}

// text is what the search filter matches against: every cell of the row,
// the action labels included.
func (r Row) text() string {
	return strings.ToLower(strings.Join([]string{r.Title, r.Subject, r.Type, r.Date, RowActions}, " "))
}

// UploadForm mirrors the upload form fields and its submit control.
type UploadForm struct {
	Title       string
	Subject     string
	Description string
	URL         string
	Files       []models.LocalFile
	Submitting  bool
}

// SubmitLabel returns the label of the submit control.
func (f UploadForm) SubmitLabel() string {
	if f.Submitting {
		return SubmittingLabel
	}
	return SubmitLabel
}

// SubmitEnabled reports whether the submit control accepts input.
func (f UploadForm) SubmitEnabled() bool {
	return !f.Submitting
}

// EditForm mirrors the edit modal.
type EditForm struct {
	Open        bool
	FileID      string
	Title       string
	Subject     string
	Description string
	URL         string
}

// Surface is the rendered state of the dashboard.
type Surface struct {
	// Counters maps total-files, total-subjects and {subject}-count to
	// their displayed text. A missing key means the counter was never set.
	Counters map[string]string

	Rows        []Row
	Placeholder string // set instead of rows when the table is empty

	// PlaceholderVisible is false while the search hides the placeholder row.
	PlaceholderVisible bool

	SearchQuery string

	FileInfoActive bool
	SelectedFiles  []string

	UploadSuccessVisible bool

	Form UploadForm
	Edit EditForm
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{Counters: make(map[string]string)}
}

// Clone returns a deep copy of s.
func (s *Surface) Clone() *Surface {
	c := *s
	c.Counters = make(map[string]string, len(s.Counters))
	for k, v := range s.Counters {
		c.Counters[k] = v
	}
	c.Rows = append([]Row(nil), s.Rows...)
	c.SelectedFiles = append([]string(nil), s.SelectedFiles...)
	c.Form.Files = append([]models.LocalFile(nil), s.Form.Files...)
	return &c
}

// Counter returns the displayed text for id and whether it has been set.
func (s *Surface) Counter(id string) (string, bool) {
	v, ok := s.Counters[id]
	return v, ok
}

// RenderStats updates the total and per-subject counters.
func RenderStats(s *Surface, files []models.FileRecord, agg map[string]int) {
	if s.Counters == nil {
		s.Counters = make(map[string]string)
	}
	s.Counters[IDTotalFiles] = strconv.Itoa(len(files))
	s.Counters[IDTotalSubjects] = strconv.Itoa(catalog.DistinctSubjects(files))
	for _, key := range catalog.SubjectKeys() {
		s.Counters[SubjectCountID(key)] = strconv.Itoa(agg[key])
	}
}

// RenderTable replaces every table row from files and reapplies the
// current search filter.
func RenderTable(s *Surface, files []models.FileRecord) {
	if len(files) == 0 {
		s.Rows = nil
		s.Placeholder = EmptyTableMessage
		ApplySearch(s, s.SearchQuery)
		return
	}

	rows := make([]Row, 0, len(files))
	for _, f := range files {
		r := Row{
			ID:           f.ID,
			Title:        f.Title,
			Subject:      f.Subject,
			Type:         f.Type,
			Date:         FormatDate(f.UploadDate),
			OriginalName: f.OriginalName,
			Visible:      true,
		}
		if t, err := f.UploadTime(); err == nil {
			r.Uploaded = t
		}
		rows = append(rows, r)
	}
	s.Rows = rows
	s.Placeholder = ""
	ApplySearch(s, s.SearchQuery)
}

// ApplySearch hides rows whose text does not contain query,
// case-insensitively. The placeholder row is filtered the same way. An
// empty query shows every row.
func ApplySearch(s *Surface, query string) {
	s.SearchQuery = query
	q := strings.ToLower(query)
	s.PlaceholderVisible = s.Placeholder != "" && strings.Contains(strings.ToLower(s.Placeholder), q)
	for i := range s.Rows {
		s.Rows[i].Visible = strings.Contains(s.Rows[i].text(), q)
	}
}

// VisibleRows returns the rows currently shown.
func VisibleRows(s *Surface) []Row {
	var out []Row
	for _, r := range s.Rows {
		if r.Visible {
			out = append(out, r)
		}
	}
	return out
}

// RenderSelectedFiles shows the staged upload preview. An empty list
// deactivates the preview but leaves the previous lines in place.
func RenderSelectedFiles(s *Surface, files []models.LocalFile) {
	s.Form.Files = append([]models.LocalFile(nil), files...)
	if len(files) == 0 {
		s.FileInfoActive = false
		return
	}
	s.FileInfoActive = true
	lines := make([]string, len(files))
	for i, f := range files {
		lines[i] = fmt.Sprintf("%s (%s)", f.Name, FormatFileSize(f.Size))
	}
	s.SelectedFiles = lines
}

// ResetUploadForm clears the form fields and the staged preview.
func ResetUploadForm(s *Surface) {
	submitting := s.Form.Submitting
	s.Form = UploadForm{Submitting: submitting}
	s.FileInfoActive = false
}

// OpenEditForm fills the edit modal from a record and opens it.
func OpenEditForm(s *Surface, f models.FileRecord) {
	s.Edit = EditForm{
		Open:        true,
		FileID:      f.ID,
		Title:       f.Title,
		Subject:     f.Subject,
		Description: f.Description,
		URL:         f.URL,
	}
}

// CloseEditForm hides the edit modal and discards its fields.
func CloseEditForm(s *Surface) {
	s.Edit = EditForm{}
}
