package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/dashboard"
	"github.com/studyvault/notesdash/internal/logging"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/progress"
	"github.com/studyvault/notesdash/internal/storage"
	"github.com/studyvault/notesdash/internal/util/filter"
	"github.com/studyvault/notesdash/internal/util/paths"
	"github.com/studyvault/notesdash/internal/util/sanitize"
)

// newFilesDownloadCmd creates the 'files download' command.
func newFilesDownloadCmd(use string) *cobra.Command {
	var target string
	var maxConcurrent int
	var all bool
	var subject, include, exclude, search, types string

	cmd := &cobra.Command{
		Use:   use,
		Short: "Download files",
		Long: `Download files by id, or every listed file with --all.

The destination is a local directory, s3://bucket/prefix or
az://container/prefix. It defaults to download_target in the config.
Files that already exist locally are kept and the new copy is saved
as "name (1).ext".

Examples:
  notesdash files download 1a2b3c 4d5e6f
  notesdash files download --all --subject java --to ./java-notes
  notesdash files download --all --include "*.pdf" --to s3://my-bucket/notes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			if maxConcurrent < constants.MinMaxConcurrent || maxConcurrent > constants.MaxMaxConcurrent {
				return fmt.Errorf("--max-concurrent must be between %d and %d, got %d",
					constants.MinMaxConcurrent, constants.MaxMaxConcurrent, maxConcurrent)
			}
			if all && len(args) > 0 {
				return fmt.Errorf("give file ids or --all, not both")
			}
			if !all && len(args) == 0 {
				return fmt.Errorf("at least one file id is required (or use --all)")
			}

			apiClient, cfg, err := getAPIClient()
			if err != nil {
				return err
			}
			ctx := GetContext()

			listed, err := apiClient.ListFiles(ctx, subject)
			if err != nil {
				return fmt.Errorf("failed to list files: %w", withHint(err))
			}

			var selected []models.FileRecord
			if all {
				selected = filter.Apply(listed, filter.Config{
					Include: filter.ParsePatternList(include),
					Exclude: filter.ParsePatternList(exclude),
					Search:  strings.Fields(search),
					Types:   filter.ParsePatternList(types),
				})
			} else {
				selected = selectByID(listed, args)
			}
			if len(selected) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files to download")
				return nil
			}

			if target == "" {
				target = cfg.DownloadTarget
			}
			saver, err := storage.NewSaver(ctx, target, cfg)
			if err != nil {
				return err
			}

			return executeFileDownload(ctx, selected, saver, maxConcurrent, apiClient, logger, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&target, "to", "o", "", "Destination: directory, s3://bucket/prefix or az://container/prefix")
	cmd.Flags().IntVarP(&maxConcurrent, "max-concurrent", "m", constants.DefaultMaxConcurrent,
		fmt.Sprintf("Maximum concurrent downloads (%d-%d)", constants.MinMaxConcurrent, constants.MaxMaxConcurrent))
	cmd.Flags().BoolVar(&all, "all", false, "Download every listed file (combine with filters)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Only files of this subject")
	cmd.Flags().StringVar(&include, "include", "", "Comma-separated glob patterns on the original file name")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Comma-separated glob patterns to leave out")
	cmd.Flags().StringVar(&search, "search", "", "Words that must all appear in title, file name or description")
	cmd.Flags().StringVar(&types, "type", "", "Comma-separated file types, e.g. pdf,docx")

	return cmd
}

// selectByID keeps the order of ids. Ids missing from the listing are still
// attempted so the server reports them.
func selectByID(listed []models.FileRecord, ids []string) []models.FileRecord {
	byID := make(map[string]models.FileRecord, len(listed))
	for _, f := range listed {
		byID[f.ID] = f
	}
	out := make([]models.FileRecord, 0, len(ids))
	for _, id := range ids {
		if f, ok := byID[id]; ok {
			out = append(out, f)
		} else {
			out = append(out, models.FileRecord{ID: id})
		}
	}
	return out
}

// planDownloads gives each record a sanitized destination name that is
// unique within the batch.
func planDownloads(files []models.FileRecord) ([]paths.FileForDownload, int) {
	planned := make([]paths.FileForDownload, len(files))
	for i, f := range files {
		name := f.OriginalName
		if name == "" {
			name = f.ID
		}
		planned[i] = paths.FileForDownload{
			FileID:    f.ID,
			Name:      name,
			LocalPath: sanitize.FileName(name),
		}
	}
	return paths.ResolveCollisions(planned)
}

// executeFileDownload downloads files concurrently and saves each one
// through saver.
func executeFileDownload(
	ctx context.Context,
	files []models.FileRecord,
	saver storage.Saver,
	maxConcurrent int,
	apiClient dashboard.FileAPI,
	logger *logging.Logger,
	out io.Writer,
) error {
	planned, collisions := planDownloads(files)
	if collisions > 0 {
		logger.Warn().Int("files", collisions).Msg("duplicate file names in this batch - ids were added to keep them apart")
	}

	logger.Info().
		Int("count", len(planned)).
		Str("target", saver.String()).
		Msg("Starting file download")

	fmt.Fprintf(out, "Downloading %d file(s) to: %s\n\n", len(planned), saver)

	ui := progress.NewTransferUI(len(planned), "Downloading")

	semaphore := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error
	var succeeded atomic.Int32

	for i, f := range planned {
		wg.Add(1)
		go func(idx int, f paths.FileForDownload) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			bar := ui.AddFileBar(idx+1, f.Name)
			loc, err := downloadOne(ctx, apiClient, saver, f, bar)
			if err != nil {
				logger.Error().Err(err).Str("id", f.FileID).Msg("Download failed")
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", f.FileID, err))
				mu.Unlock()
				return
			}
			succeeded.Add(1)
			logger.Debug().Str("id", f.FileID).Str("location", loc).Msg("Download saved")
		}(i, f)
	}

	wg.Wait()
	ui.Wait()

	logger.Debug().Int("bars_completed", ui.Completed()).Int("bars_failed", ui.Failed()).Msg("Transfer bars settled")
	fmt.Fprintf(out, "\n✓ Downloaded %d of %d file(s)\n", succeeded.Load(), len(planned))
	if len(failures) > 0 {
		return fmt.Errorf("%d download(s) failed, first error: %w", len(failures), withHint(failures[0]))
	}
	return nil
}

// downloadOne fetches one file into memory and hands it to saver. The body
// is released as soon as it is saved.
func downloadOne(ctx context.Context, apiClient dashboard.FileAPI, saver storage.Saver, f paths.FileForDownload, bar progress.Reporter) (string, error) {
	blob, err := apiClient.DownloadFile(ctx, f.FileID, bar)
	if err != nil {
		return "", err
	}
	loc, err := saver.Save(ctx, f.LocalPath, blob.Data)
	blob.Data = nil
	if err != nil {
		err = fmt.Errorf("failed to save: %w", err)
		bar.Error(err)
		return "", err
	}
	return loc, nil
}
