// Package dashboard holds the interaction logic shared by the terminal
// dashboard and the CLI.
//
// User actions and network results are Commands. Update applies a Command
// to a State and returns the Effects to run; it never blocks and never
// talks to the network. A Runner executes Effects and turns their outcome
// into the next Command.
package dashboard

import (
	"time"

	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/models"
)

// Command is a user action or the result of an effect.
type Command interface {
	command()
}

// SelectFiles stages files for upload.
type SelectFiles struct{ Files []models.LocalFile }

// EditUploadField sets one upload form field by element id.
type EditUploadField struct{ Field, Value string }

// SubmitUpload submits the upload form.
type SubmitUpload struct{}

// UploadSucceeded reports a created record.
type UploadSucceeded struct{ Record *models.FileRecord }

// UploadFailed reports an upload error.
type UploadFailed struct{ Err error }

// HideUploadSuccess hides the upload-success banner.
type HideUploadSuccess struct{}

// RequestDelete asks for confirmation before deleting ID.
type RequestDelete struct{ ID string }

// ConfirmDelete answers the pending delete prompt.
type ConfirmDelete struct{ Confirmed bool }

// DeleteSucceeded reports a deleted record.
type DeleteSucceeded struct{ ID string }

// DeleteFailed reports a delete error.
type DeleteFailed struct {
	ID  string
	Err error
}

// Download fetches a file and saves it to the download target.
type Download struct{ ID string }

// DownloadSucceeded reports where a download was saved.
type DownloadSucceeded struct{ ID, Location string }

// DownloadFailed reports a download error.
type DownloadFailed struct {
	ID  string
	Err error
}

// Edit opens the edit form for a record from the last fetched list.
type Edit struct{ ID string }

// EditField sets one edit form field by element id.
type EditField struct{ Field, Value string }

// SubmitEdit sends the edit form.
type SubmitEdit struct{}

// CancelEdit closes the edit form without saving.
type CancelEdit struct{}

// EditSucceeded reports an updated record.
type EditSucceeded struct{ Record *models.FileRecord }

// EditFailed reports an update error.
type EditFailed struct{ Err error }

// Search filters the table.
type Search struct{ Query string }

// Refresh re-fetches the file list.
type Refresh struct{}

// Loaded carries a freshly fetched file list.
type Loaded struct{ Files []models.FileRecord }

// LoadFailed reports a list error.
type LoadFailed struct{ Err error }

// CheckHealth probes the API test endpoint.
type CheckHealth struct{}

// HealthChecked reports a reachable API.
type HealthChecked struct{ Status *models.TestStatus }

// HealthFailed reports an unreachable API.
type HealthFailed struct{ Err error }

func (SelectFiles) command()       {}
func (EditUploadField) command()   {}
func (SubmitUpload) command()      {}
func (UploadSucceeded) command()   {}
func (UploadFailed) command()      {}
func (HideUploadSuccess) command() {}
func (RequestDelete) command()     {}
func (ConfirmDelete) command()     {}
func (DeleteSucceeded) command()   {}
func (DeleteFailed) command()      {}
func (Download) command()          {}
func (DownloadSucceeded) command() {}
func (DownloadFailed) command()    {}
func (Edit) command()              {}
func (EditField) command()         {}
func (SubmitEdit) command()        {}
func (CancelEdit) command()        {}
func (EditSucceeded) command()     {}
func (EditFailed) command()        {}
func (Search) command()            {}
func (Refresh) command()           {}
func (Loaded) command()            {}
func (LoadFailed) command()        {}
func (CheckHealth) command()       {}
func (HealthChecked) command()     {}
func (HealthFailed) command()      {}

// Effect is work requested by Update.
type Effect interface {
	effect()
}

// ListFiles fetches the full file list.
type ListFiles struct{}

// UploadFile posts a staged file.
type UploadFile struct{ Request models.UploadRequest }

// UpdateFile saves edited metadata.
type UpdateFile struct {
	ID     string
	Update models.UpdateRequest
}

// DeleteFile removes a record on the server.
type DeleteFile struct{ ID string }

// DownloadFile fetches a file. FileName is used when the server does not
// name the attachment.
type DownloadFile struct{ ID, FileName string }

// CheckHealthEffect probes GET /api/test.
type CheckHealthEffect struct{}

// ShowToast shows a toast.
type ShowToast struct {
	Kind    events.ToastKind
	Message string
}

// After feeds Command back after Delay.
type After struct {
	Delay   time.Duration
	Command Command
}

func (ListFiles) effect()         {}
func (UploadFile) effect()        {}
func (UpdateFile) effect()        {}
func (DeleteFile) effect()        {}
func (DownloadFile) effect()      {}
func (CheckHealthEffect) effect() {}
func (ShowToast) effect()         {}
func (After) effect()             {}
