package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyvault/notesdash/internal/api"
	"github.com/studyvault/notesdash/internal/config"
	"github.com/studyvault/notesdash/internal/constants"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage notesdash configuration",
		Long: `Configuration management commands for notesdash.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the server connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for notesdash.

The configuration is saved to ~/.config/notesdash/config.csv (or the
--config path; a .ini path writes an INI profile). The token is saved
separately to ~/.config/notesdash/token with 0600 permissions.

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Configuration already exists at: %s\n", path)
					fmt.Fprintln(cmd.OutOrStdout(), "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			cfg, tok, err := promptConfig(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return saveInitConfig(cmd.OutOrStdout(), cfg, tok, path, config.GetDefaultTokenPath())
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// promptConfig asks for every setting with the defaults pre-filled. The
// token is read without echo when stdin is a terminal.
func promptConfig(in io.Reader, out io.Writer) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	interactive := in == os.Stdin
	in = bufferedInput(in)

	fmt.Fprintln(out, "Notes Dashboard Configuration Setup")
	fmt.Fprintln(out, "===================================")
	fmt.Fprintln(out)

	cfg.APIBaseURL = config.NormalizeBaseURL(promptDefault(in, out, "Server URL", cfg.APIBaseURL))

	var tok string
	var err error
	if interactive {
		tok, err = readSecret(fmt.Sprintf("Token (leave empty for %q): ", constants.PlaceholderToken))
		if err != nil {
			return nil, "", fmt.Errorf("failed to read token: %w", err)
		}
	} else {
		fmt.Fprintf(out, "Token (leave empty for %q): ", constants.PlaceholderToken)
		tok, _ = readLine(in)
	}

	cfg.DownloadTarget = promptDefault(in, out, "Download destination (dir, s3://, az://)", cfg.DownloadTarget)

	fmt.Fprintln(out)
	if confirm(in, out, "Configure proxy?") {
		fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
		cfg.ProxyMode = promptDefault(in, out, "Proxy mode", "system")
		if cfg.ProxyMode != "no-proxy" {
			cfg.ProxyHost = promptDefault(in, out, "Proxy host", "")
			if v, err := strconv.Atoi(promptDefault(in, out, "Proxy port", "8080")); err == nil && v > 0 {
				cfg.ProxyPort = v
			}
			if cfg.ProxyMode == "basic" || cfg.ProxyMode == "ntlm" {
				cfg.ProxyUser = promptDefault(in, out, "Proxy user", "")
			}
		}
	}

	cfg.DesktopNotify = confirm(in, out, "Show desktop notifications from the dashboard?")

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, strings.TrimSpace(tok), nil
}

// saveInitConfig writes cfg to path and tok (if any) to tokenPath.
func saveInitConfig(out io.Writer, cfg *config.Config, tok, path, tokenPath string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	GetLogger().Info().Str("path", path).Msg("Configuration saved")

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)

	if tok != "" {
		if err := config.WriteTokenFile(tokenPath, tok); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Token saved to: %s\n", tokenPath)
	} else {
		fmt.Fprintf(out, "No token saved - the server's placeholder %q will be used.\n", constants.PlaceholderToken)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Test your configuration with: notesdash config test")
	return nil
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/notesdash/config.csv or config.ini)
  2. Token file (~/.config/notesdash/token or --token-file)
  3. Environment variables (NOTESDASH_TOKEN, NOTESDASH_URL)
  4. Command-line flags (--token, --api-url, --proxy-*)

Priority: flags > environment > token file > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.MergeWithFlagsAndTokenFile(token, tokenFile, apiBaseURL, proxyMode, proxyHost, proxyPort)

			printConfig(cmd.OutOrStdout(), cfg)

			fmt.Fprintf(cmd.OutOrStdout(), "\nConfiguration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current Configuration")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Server:")
	fmt.Fprintf(w, "  URL:   %s%s\n", cfg.APIBaseURL, constants.APIPathPrefix)
	switch {
	case cfg.Token == "":
		fmt.Fprintf(w, "  Token: <not set, placeholder %q is used>\n", constants.PlaceholderToken)
	case cfg.UsesPlaceholderToken():
		fmt.Fprintln(w, "  Token: <placeholder>")
	default:
		// Never display any portion of the token
		fmt.Fprintf(w, "  Token: <set (%d chars)>\n", len(cfg.Token))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Requests:")
	fmt.Fprintf(w, "  Max retries:     %d\n", cfg.MaxRetries)
	if cfg.RequestTimeout > 0 {
		fmt.Fprintf(w, "  Request timeout: %s\n", cfg.RequestTimeout)
	} else {
		fmt.Fprintln(w, "  Request timeout: none")
	}
	if cfg.RateLimit > 0 {
		fmt.Fprintf(w, "  Rate limit:      %g req/s\n", cfg.RateLimit)
	} else {
		fmt.Fprintln(w, "  Rate limit:      off")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Proxy:")
	fmt.Fprintf(w, "  Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(w, "  Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(w, "  Port: %d\n", cfg.ProxyPort)
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(w, "  No proxy: %s\n", cfg.NoProxy)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Downloads:")
	fmt.Fprintf(w, "  Destination: %s\n", cfg.DownloadTarget)
	if cfg.S3Region != "" || cfg.S3Endpoint != "" {
		fmt.Fprintf(w, "  S3 region:   %s\n", cfg.S3Region)
		if cfg.S3Endpoint != "" {
			fmt.Fprintf(w, "  S3 endpoint: %s\n", cfg.S3Endpoint)
		}
	}
	if cfg.AzureAccountURL != "" {
		fmt.Fprintf(w, "  Azure account: %s\n", cfg.AzureAccountURL)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Desktop notifications: %v\n", cfg.DesktopNotify)
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the server connection",
		Long:  `Test the connection to the notes server with the current configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			w := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Fprintf(w, "Server: %s\n", cfg.APIBaseURL)
			fmt.Fprintln(w, "Testing connection...")

			apiClient, err := api.NewClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			ctx, cancel := context.WithTimeout(GetContext(), 10*time.Second)
			defer cancel()

			status, err := apiClient.CheckHealth(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(w, "✗ Connection FAILED")
				fmt.Fprintf(w, "  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			logger.Info().Msg("Connection test successful")
			fmt.Fprintln(w, "✓ Connection SUCCESSFUL")
			fmt.Fprintf(w, "  Server says: %s\n", status.Message)
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			path := configPath()
			if cfgFile == "" {
				fmt.Fprintln(w, "Default configuration path:")
			} else {
				fmt.Fprintln(w, "Configuration path (from --config flag):")
			}
			fmt.Fprintf(w, "  %s\n\n", path)

			if info, err := os.Stat(path); err == nil {
				fmt.Fprintln(w, "Status:   ✓ File exists")
				fmt.Fprintf(w, "Size:     %d bytes\n", info.Size())
				fmt.Fprintf(w, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(w, "Status: File does not exist")
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Create a configuration file with: notesdash config init")
			}
			return nil
		},
	}
}
