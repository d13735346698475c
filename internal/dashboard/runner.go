package dashboard

import (
	"context"
	"time"

	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/logging"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/progress"
	"github.com/studyvault/notesdash/internal/storage"
	"github.com/studyvault/notesdash/internal/view"
)

// FileAPI is the part of api.Client the dashboard uses.
type FileAPI interface {
	ListFiles(ctx context.Context, subject string) ([]models.FileRecord, error)
	UploadFile(ctx context.Context, upload models.UploadRequest, reporter progress.Reporter) (*models.FileRecord, error)
	UpdateFile(ctx context.Context, id string, update models.UpdateRequest) (*models.FileRecord, error)
	DeleteFile(ctx context.Context, id string) error
	DownloadFile(ctx context.Context, id string, reporter progress.Reporter) (*models.Blob, error)
	CheckHealth(ctx context.Context) (*models.TestStatus, error)
}

// Runner executes effects. Every failure is logged and returned as a
// result command; Run never returns an error.
type Runner struct {
	api      FileAPI
	saver    storage.Saver
	toaster  *view.Toaster
	catalog  *catalog.State
	eventBus *events.EventBus
	logger   *logging.Logger

	// reporters overrides the progress reporter for transfers
	reporters func(name, direction string) progress.Reporter
}

// NewRunner wires a runner. catalog and eventBus may be nil.
func NewRunner(api FileAPI, saver storage.Saver, toaster *view.Toaster, cat *catalog.State, eventBus *events.EventBus, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if toaster == nil {
		toaster = view.NewToaster(eventBus, nil)
	}
	return &Runner{
		api:      api,
		saver:    saver,
		toaster:  toaster,
		catalog:  cat,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Toaster returns the toaster effects are shown on.
func (r *Runner) Toaster() *view.Toaster {
	return r.toaster
}

// SetReporters makes transfers report progress through fn instead of the
// event bus. The CLI uses it for terminal progress bars.
func (r *Runner) SetReporters(fn func(name, direction string) progress.Reporter) {
	r.reporters = fn
}

func (r *Runner) reporter(name, direction string) progress.Reporter {
	if r.reporters != nil {
		return r.reporters(name, direction)
	}
	if r.eventBus == nil {
		return nil
	}
	return progress.NewEventProgress(r.eventBus, name, direction)
}

// Run executes eff and returns the resulting command, or nil when there is
// nothing to feed back.
func (r *Runner) Run(ctx context.Context, eff Effect) Command {
	switch e := eff.(type) {
	case ShowToast:
		r.toaster.Show(e.Kind, e.Message)
		return nil

	case After:
		t := time.NewTimer(e.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			return e.Command
		}

	case ListFiles:
		files, err := r.api.ListFiles(ctx, "")
		if err != nil {
			r.logger.Error().Err(err).Msg("Error loading files")
			if r.catalog != nil {
				r.catalog.SetError(err)
			}
			return LoadFailed{Err: err}
		}
		r.logger.Debug().Int("count", len(files)).Msg("Loaded files")
		if r.catalog != nil {
			r.catalog.SetFiles(files)
		}
		return Loaded{Files: files}

	case UploadFile:
		r.logger.Info().Str("title", e.Request.Title).Str("subject", e.Request.Subject).Msg("Uploading file")
		rec, err := r.api.UploadFile(ctx, e.Request, r.reporter(e.Request.Title, "upload"))
		if err != nil {
			r.logger.Error().Err(err).Msg("Upload error")
			return UploadFailed{Err: err}
		}
		return UploadSucceeded{Record: rec}

	case UpdateFile:
		rec, err := r.api.UpdateFile(ctx, e.ID, e.Update)
		if err != nil {
			r.logger.Error().Err(err).Str("id", e.ID).Msg("Update error")
			return EditFailed{Err: err}
		}
		return EditSucceeded{Record: rec}

	case DeleteFile:
		r.logger.Info().Str("id", e.ID).Msg("Deleting file")
		if err := r.api.DeleteFile(ctx, e.ID); err != nil {
			r.logger.Error().Err(err).Str("id", e.ID).Msg("Delete error")
			return DeleteFailed{ID: e.ID, Err: err}
		}
		return DeleteSucceeded{ID: e.ID}

	case DownloadFile:
		return r.download(ctx, e)

	case CheckHealthEffect:
		status, err := r.api.CheckHealth(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("API test failed")
			return HealthFailed{Err: err}
		}
		return HealthChecked{Status: status}
	}
	return nil
}

func (r *Runner) download(ctx context.Context, e DownloadFile) Command {
	label := e.FileName
	if label == "" {
		label = e.ID
	}
	blob, err := r.api.DownloadFile(ctx, e.ID, r.reporter(label, "download"))
	if err != nil {
		r.logger.Error().Err(err).Str("id", e.ID).Msg("Download error")
		return DownloadFailed{ID: e.ID, Err: err}
	}

	name := blob.Name
	if name == "" {
		name = label
	}
	r.logger.Debug().Str("id", e.ID).Int64("bytes", blob.Size()).Msg("Download received")
	loc, err := r.saver.Save(ctx, name, blob.Data)
	// The blob is not needed past this point
	blob.Data = nil
	if err != nil {
		r.logger.Error().Err(err).Str("id", e.ID).Msg("Saving download failed")
		return DownloadFailed{ID: e.ID, Err: err}
	}
	r.logger.Info().Str("id", e.ID).Str("location", loc).Msg("Download saved")
	return DownloadSucceeded{ID: e.ID, Location: loc}
}
