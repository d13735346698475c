package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyvault/notesdash/internal/api"
	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/dashboard"
	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/logging"
	"github.com/studyvault/notesdash/internal/notify"
	"github.com/studyvault/notesdash/internal/storage"
	"github.com/studyvault/notesdash/internal/tui"
	"github.com/studyvault/notesdash/internal/view"
)

// newDashboardCmd creates the 'dashboard' command.
func newDashboardCmd() *cobra.Command {
	var desktopNotify bool

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive dashboard",
		Long: `Open the interactive notes dashboard in the terminal.

The dashboard shows the file counters, the per-subject grid and the files
table. Upload, edit, delete and download from the keyboard; press ? for
all keys.

Logs go to a file in the notesdash log directory while the dashboard is open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			eventBus := events.NewEventBus(constants.EventBusDefaultBuffer)
			defer eventBus.Close()

			if err := config.EnsureLogDirectory(); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
			logPath := logging.DefaultLogFile(config.LogDirectory())
			fileLogger, closer, err := logging.NewFileLogger(logPath, eventBus)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer closer.Close()
			GetLogger().Debug().Str("path", logPath).Msg("Dashboard logging to file")

			apiClient, err := api.NewClient(cfg, fileLogger)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			saver, err := storage.NewSaver(ctx, cfg.DownloadTarget, cfg)
			if err != nil {
				return fmt.Errorf("invalid download destination: %w", err)
			}

			if desktopNotify || cfg.DesktopNotify {
				notifier := notify.NewNotifier(&notify.Config{Enabled: true, ShowSuccess: true}, fileLogger)
				watchCtx, stopWatch := context.WithCancel(ctx)
				watching := notifier.Watch(watchCtx, eventBus)
				defer func() {
					stopWatch()
					<-watching
				}()
			}
			toaster := view.NewToaster(eventBus, nil)

			runner := dashboard.NewRunner(apiClient, saver, toaster, catalog.NewState(eventBus), eventBus, fileLogger)

			fileLogger.Info().Str("server", cfg.APIBaseURL).Str("downloads", saver.String()).Msg("Dashboard started")
			err = tui.Run(ctx, tui.Options{
				Runner:   runner,
				EventBus: eventBus,
				BaseURL:  cfg.APIBaseURL,
			})
			if dropped := eventBus.GetDroppedEventCount(); dropped > 0 {
				fileLogger.Debug().Int64("dropped", dropped).Msg("Event bus dropped events for slow subscribers")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&desktopNotify, "notify", false, "Also show toasts as desktop notifications")

	return cmd
}
