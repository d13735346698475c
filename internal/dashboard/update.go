package dashboard

import (
	"strings"

	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/util/sanitize"
	"github.com/studyvault/notesdash/internal/view"
)

// Toast messages.
const (
	MsgMissingFields   = "Please fill all required fields and select a file"
	MsgUploaded        = "File uploaded successfully!"
	MsgDeleted         = "File deleted successfully"
	MsgDownloadStarted = "Download started"
	MsgUpdated         = "File updated successfully"
	MsgEditMissing     = "Title and subject are required"
	MsgAPIDown         = "API connection failed"
)

// State is everything the dashboard shows plus the last fetched list.
type State struct {
	Surface *view.Surface

	// Files is the last successfully fetched collection. Edit and
	// download look records up here rather than fetching by id.
	Files  []models.FileRecord
	Loaded bool

	Loading       bool
	PendingDelete string // id awaiting confirmation
	EditSaving    bool
	APIStatus     string // message from the last health check
	APIReachable  bool
}

// NewState returns the initial dashboard state.
func NewState() State {
	return State{Surface: view.NewSurface()}
}

// Start returns the effects to run when a dashboard opens.
func Start() []Effect {
	return []Effect{CheckHealthEffect{}, ListFiles{}}
}

func (s State) clone() State {
	c := s
	if s.Surface != nil {
		c.Surface = s.Surface.Clone()
	} else {
		c.Surface = view.NewSurface()
	}
	c.Files = append([]models.FileRecord(nil), s.Files...)
	return c
}

// Find returns the record with id from the last fetched list.
func (s State) Find(id string) (models.FileRecord, bool) {
	for _, f := range s.Files {
		if f.ID == id {
			return f, true
		}
	}
	return models.FileRecord{}, false
}

func toastError(msg string) Effect {
	return ShowToast{Kind: events.ToastError, Message: msg}
}

func toastSuccess(msg string) Effect {
	return ShowToast{Kind: events.ToastSuccess, Message: msg}
}

// errText returns err's message, or "unknown error".
func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// Update applies cmd to s and returns the new state and the effects to run.
// s is not modified.
func Update(s State, cmd Command) (State, []Effect) {
	s = s.clone()
	surf := s.Surface

	switch c := cmd.(type) {
	case SelectFiles:
		view.RenderSelectedFiles(surf, c.Files)
		return s, nil

	case EditUploadField:
		setUploadField(&surf.Form, c.Field, c.Value)
		return s, nil

	case SubmitUpload:
		if surf.Form.Submitting {
			return s, nil
		}
		form := surf.Form
		title := sanitize.SanitizeField(form.Title)
		subject := sanitize.SanitizeField(form.Subject)
		if len(form.Files) == 0 || title == "" || subject == "" {
			return s, []Effect{toastError(MsgMissingFields)}
		}
		surf.Form.Submitting = true
		return s, []Effect{UploadFile{Request: models.UploadRequest{
			Path:        form.Files[0].Path,
			Title:       title,
			Subject:     subject,
			Description: sanitize.SanitizeText(form.Description),
			URL:         strings.TrimSpace(form.URL),
		}}}

	case UploadSucceeded:
		view.ResetUploadForm(surf)
		surf.Form.Submitting = false
		surf.UploadSuccessVisible = true
		return s, []Effect{
			toastSuccess(MsgUploaded),
			After{Delay: constants.UploadSuccessBannerDuration, Command: HideUploadSuccess{}},
			ListFiles{},
		}

	case UploadFailed:
		surf.Form.Submitting = false
		return s, []Effect{toastError("Failed to upload file: " + errText(c.Err))}

	case HideUploadSuccess:
		surf.UploadSuccessVisible = false
		return s, nil

	case RequestDelete:
		s.PendingDelete = c.ID
		return s, nil

	case ConfirmDelete:
		id := s.PendingDelete
		s.PendingDelete = ""
		if !c.Confirmed || id == "" {
			return s, nil
		}
		return s, []Effect{DeleteFile{ID: id}}

	case DeleteSucceeded:
		return s, []Effect{toastSuccess(MsgDeleted), ListFiles{}}

	case DeleteFailed:
		return s, []Effect{toastError("Failed to delete file: " + errText(c.Err))}

	case Download:
		name := ""
		if f, ok := s.Find(c.ID); ok {
			name = f.OriginalName
		}
		return s, []Effect{DownloadFile{ID: c.ID, FileName: name}}

	case DownloadSucceeded:
		return s, []Effect{toastSuccess(MsgDownloadStarted)}

	case DownloadFailed:
		return s, []Effect{toastError("Failed to download file: " + errText(c.Err))}

	case Edit:
		f, ok := s.Find(c.ID)
		if !ok {
			return s, nil
		}
		view.OpenEditForm(surf, f)
		return s, nil

	case EditField:
		setEditField(&surf.Edit, c.Field, c.Value)
		return s, nil

	case SubmitEdit:
		if !surf.Edit.Open || s.EditSaving {
			return s, nil
		}
		e := surf.Edit
		title := sanitize.SanitizeField(e.Title)
		subject := sanitize.SanitizeField(e.Subject)
		if title == "" || subject == "" {
			return s, []Effect{toastError(MsgEditMissing)}
		}
		description := sanitize.SanitizeText(e.Description)
		url := strings.TrimSpace(e.URL)
		s.EditSaving = true
		return s, []Effect{UpdateFile{ID: e.FileID, Update: models.UpdateRequest{
			Title:       &title,
			Subject:     &subject,
			Description: &description,
			URL:         &url,
		}}}

	case CancelEdit:
		view.CloseEditForm(surf)
		s.EditSaving = false
		return s, nil

	case EditSucceeded:
		view.CloseEditForm(surf)
		s.EditSaving = false
		return s, []Effect{toastSuccess(MsgUpdated), ListFiles{}}

	case EditFailed:
		s.EditSaving = false
		return s, []Effect{toastError("Failed to update file: " + errText(c.Err))}

	case Search:
		view.ApplySearch(surf, c.Query)
		return s, nil

	case Refresh:
		s.Loading = true
		return s, []Effect{ListFiles{}}

	case Loaded:
		s.Files = append([]models.FileRecord(nil), c.Files...)
		s.Loaded = true
		s.Loading = false
		view.RenderStats(surf, s.Files, catalog.Recompute(s.Files))
		view.RenderTable(surf, s.Files)
		return s, nil

	case LoadFailed:
		s.Loading = false
		return s, []Effect{toastError("Failed to load files: " + errText(c.Err))}

	case CheckHealth:
		return s, []Effect{CheckHealthEffect{}}

	case HealthChecked:
		s.APIReachable = true
		if c.Status != nil {
			s.APIStatus = c.Status.Message
		}
		return s, nil

	case HealthFailed:
		s.APIReachable = false
		s.APIStatus = errText(c.Err)
		return s, []Effect{toastError(MsgAPIDown)}
	}

	return s, nil
}

func setUploadField(f *view.UploadForm, field, value string) {
	switch field {
	case view.IDFileTitle:
		f.Title = value
	case view.IDFileSubject:
		f.Subject = value
	case view.IDFileDescription:
		f.Description = value
	case view.IDFileURL:
		f.URL = value
	}
}

func setEditField(e *view.EditForm, field, value string) {
	switch field {
	case view.IDEditTitle:
		e.Title = value
	case view.IDEditSubject:
		e.Subject = value
	case view.IDEditDescription:
		e.Description = value
	case view.IDEditURL:
		e.URL = value
	}
}
