package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyvault/notesdash/internal/api"
	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/view"
)

// newStatsCmd creates the 'stats' command.
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show file counts per subject",
		Long: `Show the total number of files, the number of distinct subjects and
how many files each known subject has.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, _, err := getAPIClient()
			if err != nil {
				return err
			}

			cat, err := loadCatalog(GetContext(), apiClient, GetLogger())
			if err != nil {
				return fmt.Errorf("failed to load files: %w", err)
			}
			GetLogger().Debug().Int("files", cat.Total()).Msg("Catalog loaded")

			s := view.NewSurface()
			view.RenderStats(s, cat.Files(), cat.Aggregates())
			printStats(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

// printStats writes the rendered counters, one subject per line.
func printStats(w io.Writer, s *view.Surface) {
	fmt.Fprintf(w, "Total files:    %s\n", counterOr(s, view.IDTotalFiles))
	fmt.Fprintf(w, "Total subjects: %s\n", counterOr(s, view.IDTotalSubjects))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-36s %s\n", "SUBJECT", "FILES")
	for _, subj := range catalog.Subjects {
		fmt.Fprintf(w, "%-36s %s\n", subj.Title, counterOr(s, view.SubjectCountID(subj.Key)))
	}
}

// newSubjectsCmd creates the 'subjects' command.
func newSubjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the known subject keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-14s %s\n", "KEY", "TITLE")
			for _, s := range catalog.Subjects {
				fmt.Fprintf(w, "%-14s %s\n", s.Key, s.Title)
			}
			return nil
		},
	}
}

// newHealthCmd creates the 'health' command.
func newHealthCmd() *cobra.Command {
	var full, debugFiles bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the notes server is reachable",
		Long: `Check the notes server.

Without flags this calls the test endpoint. --full adds the server's
health report (file count, free disk space) and --debug lists what the
server holds in memory and on disk, including orphaned files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			apiClient, cfg, err := getAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Server: %s\n", cfg.APIBaseURL)

			status, err := apiClient.CheckHealth(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("API test failed")
				fmt.Fprintln(w, "✗ Connection FAILED")
				fmt.Fprintf(w, "  Error: %v\n", withHint(err))
				return fmt.Errorf("connection test failed")
			}
			fmt.Fprintf(w, "✓ %s\n", status.Message)

			if full {
				if err := printHealth(ctx, w, apiClient); err != nil {
					return err
				}
			}
			if debugFiles {
				if err := printDebug(ctx, w, apiClient); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Include the server health report")
	cmd.Flags().BoolVar(&debugFiles, "debug-files", false, "Include the server's file bookkeeping")

	return cmd
}

func printHealth(ctx context.Context, w io.Writer, client *api.Client) error {
	h, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health report failed: %w", err)
	}
	printHealthReport(w, h)
	return nil
}

func printHealthReport(w io.Writer, h *models.HealthStatus) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Health:")
	fmt.Fprintf(w, "  Status:        %s\n", h.Status)
	fmt.Fprintf(w, "  Files:         %d\n", h.FilesCount)
	fmt.Fprintf(w, "  Free space:    %s\n", h.DiskSpace())
	if h.UploadFolder != "" {
		fmt.Fprintf(w, "  Upload folder: %s\n", h.UploadFolder)
	}
	if h.Error != "" {
		fmt.Fprintf(w, "  Error:         %s\n", h.Error)
	}
}

func printDebug(ctx context.Context, w io.Writer, client *api.Client) error {
	d, err := client.Debug(ctx)
	if err != nil {
		return fmt.Errorf("debug report failed: %w", err)
	}
	printDebugReport(w, d)
	return nil
}

func printDebugReport(w io.Writer, d *models.DebugInfo) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server files:")
	fmt.Fprintf(w, "  Upload folder:  %s (exists: %v)\n", d.UploadFolder, d.FolderExists)
	fmt.Fprintf(w, "  In memory:      %d\n", d.FilesInMemory)
	fmt.Fprintf(w, "  On disk:        %d\n", d.PhysicalFilesCount)
	fmt.Fprintf(w, "  Max file size:  %.1f MB\n", d.MaxFileSizeMB)
	if orphans := d.OrphanedFiles(); len(orphans) > 0 {
		fmt.Fprintf(w, "  Orphaned files: %d\n", len(orphans))
		for _, name := range orphans {
			fmt.Fprintf(w, "    %s\n", name)
		}
	}
}
