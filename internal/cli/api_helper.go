package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/term"

	"github.com/studyvault/notesdash/internal/api"
	"github.com/studyvault/notesdash/internal/catalog"
	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/dashboard"
	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/http"
	"github.com/studyvault/notesdash/internal/logging"
	"github.com/studyvault/notesdash/internal/progress"
	"github.com/studyvault/notesdash/internal/storage"
	"github.com/studyvault/notesdash/internal/view"
)

// configPath returns --config or the default location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetDefaultConfigPath()
}

// loadConfig reads the config file and merges env vars, token files and
// flags on top. Priority: flags > environment > token file > config file > defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return nil, err
	}

	cfg.MergeWithFlagsAndTokenFile(token, tokenFile, apiBaseURL, proxyMode, proxyHost, proxyPort)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.UsesPlaceholderToken() {
		GetLogger().Warn().Msg("no token configured - using the server's placeholder token")
	}

	if http.NeedsProxyPassword(cfg) {
		password, err := readSecret(fmt.Sprintf("Proxy password for %s: ", cfg.ProxyUser))
		if err != nil {
			return nil, fmt.Errorf("failed to read proxy password: %w", err)
		}
		cfg.ProxyPassword = password
	}

	return cfg, nil
}

// getAPIClient loads configuration and creates an API client.
// This is the standard way to get an API client in CLI commands.
func getAPIClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	client, err := api.NewClient(cfg, GetLogger())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return client, cfg, nil
}

// consoleToasts prints dashboard toasts as CLI status lines and counts the
// errors so commands can exit non-zero.
type consoleToasts struct {
	out    io.Writer
	errOut io.Writer
	errors atomic.Int32
}

func (c *consoleToasts) Toast(kind events.ToastKind, message string) {
	if kind == events.ToastError {
		c.errors.Add(1)
		fmt.Fprintf(c.errOut, "✗ %s\n", message)
		return
	}
	fmt.Fprintf(c.out, "✓ %s\n", message)
}

// Errors returns the number of error toasts printed so far.
func (c *consoleToasts) Errors() int {
	return int(c.errors.Load())
}

// newCLISession wires a dashboard session whose toasts print to the console
// and whose transfers show a terminal progress bar.
func newCLISession(ctx context.Context, client dashboard.FileAPI, saver storage.Saver, log *logging.Logger, out, errOut io.Writer) (*dashboard.Session, *consoleToasts) {
	toasts := &consoleToasts{out: out, errOut: errOut}
	toaster := view.NewToaster(nil, toasts)
	runner := dashboard.NewRunner(client, saver, toaster, nil, nil, log)
	runner.SetReporters(func(name, direction string) progress.Reporter {
		return progress.NewCLIProgress()
	})
	return dashboard.NewSession(ctx, runner), toasts
}

// readSecret prompts on stderr and reads a line without echo when stdin is
// a terminal.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(os.Stdin)
}

// withHint adds a next step to server errors the user can act on.
func withHint(err error) error {
	switch {
	case err == nil:
		return nil
	case api.IsUnauthorized(err):
		return fmt.Errorf("%w (check the token with 'notesdash config show' or run 'notesdash config init')", err)
	case api.IsTooLarge(err):
		return fmt.Errorf("%w (the server accepts files up to %s)", err, view.FormatFileSize(constants.MaxUploadSize))
	case api.IsNotFound(err):
		return fmt.Errorf("%w (list the current ids with 'notesdash ls')", err)
	}
	return err
}

// loadCatalog fetches the file list into a catalog through the dashboard
// runner, so the CLI counts match the dashboard's.
func loadCatalog(ctx context.Context, client dashboard.FileAPI, log *logging.Logger) (*catalog.State, error) {
	cat := catalog.NewState(nil)
	runner := dashboard.NewRunner(client, nil, nil, cat, nil, log)
	runner.Run(ctx, dashboard.ListFiles{})
	if !cat.Loaded() {
		return nil, withHint(cat.LastError())
	}
	return cat, nil
}
