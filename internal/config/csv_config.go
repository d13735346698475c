package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/studyvault/notesdash/internal/constants"
)

// Config holds the settings for talking to the notes server and for
// saving downloaded files.
type Config struct {
	// API settings
	APIBaseURL string // server origin; the /api path is appended by the client
	Token      string // bearer credential attached to every call

	// Proxy settings
	ProxyMode     string // "no-proxy", "ntlm", "basic", "system"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool

	// Request behavior
	MaxRetries     int           // retries for idempotent calls; 0 disables retrying
	RequestTimeout time.Duration // 0 = no per-request timeout
	RateLimit      float64       // requests/sec; 0 disables client-side pacing

	// Download destination: a local directory, s3://bucket/prefix or az://container/prefix
	DownloadTarget string

	// Desktop notifications mirror dashboard toasts
	DesktopNotify bool

	// Object storage targets
	S3Region        string
	S3Endpoint      string // optional, for S3-compatible stores
	AzureAccountURL string // https://<account>.blob.core.windows.net
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:     constants.DefaultAPIBaseURL,
		ProxyMode:      "no-proxy",
		MaxRetries:     constants.DefaultMaxRetries,
		RateLimit:      constants.APIRatePerSec,
		DownloadTarget: ".",
	}
}

// LoadConfig loads a CSV or INI config depending on the file extension.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		return LoadConfigINI(path)
	}
	return LoadConfigCSV(path)
}

// SaveConfig writes cfg in the format implied by the path extension.
func SaveConfig(cfg *Config, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		return SaveConfigINI(cfg, path)
	}
	return SaveConfigCSV(cfg, path)
}

// LoadConfigCSV loads configuration from a CSV file
// CSV format: key,value pairs
func LoadConfigCSV(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read config CSV: %w", err)
	}

	for i, record := range records {
		if i == 0 {
			// Skip header row if it looks like a header
			if len(record) >= 2 && strings.ToLower(record[0]) == "key" {
				continue
			}
		}

		if len(record) < 2 {
			continue
		}

		key := strings.TrimSpace(strings.ToLower(record[0]))
		value := strings.TrimSpace(record[1])
		if err := cfg.set(key, value); err != nil {
			return nil, fmt.Errorf("config %s line %d: %w", path, i+1, err)
		}
	}

	return cfg, nil
}

// set applies a single key/value pair shared by the CSV and INI loaders.
func (c *Config) set(key, value string) error {
	switch key {
	case "api_base_url", "base_url":
		c.APIBaseURL = value
	case "token", "api_token":
		// Tokens belong in the token file or NOTESDASH_TOKEN, not in shared config
		if value != "" {
			log.Warn().Msg("token in config file is ignored - use NOTESDASH_TOKEN env var or --token-file flag")
		}
	case "proxy_mode":
		c.ProxyMode = value
	case "proxy_host":
		c.ProxyHost = value
	case "proxy_port":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid proxy_port %q", value)
		}
		c.ProxyPort = v
	case "proxy_user":
		c.ProxyUser = value
	case "proxy_password":
		if value != "" {
			log.Warn().Msg("proxy_password in config file is ignored - it is prompted for at runtime")
		}
	case "no_proxy":
		c.NoProxy = value
	case "proxy_warmup":
		c.ProxyWarmup = parseBool(value)
	case "max_retries":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid max_retries %q", value)
		}
		c.MaxRetries = v
	case "request_timeout":
		// Accept plain seconds or a Go duration string
		if secs, err := strconv.Atoi(value); err == nil {
			c.RequestTimeout = time.Duration(secs) * time.Second
		} else if d, err := time.ParseDuration(value); err == nil {
			c.RequestTimeout = d
		} else {
			return fmt.Errorf("invalid request_timeout %q", value)
		}
	case "rate_limit":
		if strings.EqualFold(value, "off") {
			c.RateLimit = 0
			return nil
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid rate_limit %q", value)
		}
		c.RateLimit = v
	case "download_target", "download_dir":
		c.DownloadTarget = value
	case "desktop_notify":
		c.DesktopNotify = parseBool(value)
	case "s3_region":
		c.S3Region = value
	case "s3_endpoint":
		c.S3Endpoint = value
	case "azure_account_url":
		c.AzureAccountURL = value
	default:
		log.Debug().Str("key", key).Msg("unknown config key ignored")
	}
	return nil
}

func parseBool(value string) bool {
	v := strings.ToLower(value)
	return v == "true" || v == "1" || v == "yes"
}

// SaveConfigCSV saves configuration to a CSV file
// CSV format: key,value pairs
func SaveConfigCSV(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"key", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// token and proxy_password are never written
	for _, record := range cfg.records() {
		if record[1] != "" && record[1] != "0" && record[1] != "false" {
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// records lists the persisted fields in file order.
func (c *Config) records() [][]string {
	timeout := ""
	if c.RequestTimeout > 0 {
		timeout = strconv.Itoa(int(c.RequestTimeout / time.Second))
	}
	rate := "off"
	if c.RateLimit > 0 {
		rate = strconv.FormatFloat(c.RateLimit, 'f', -1, 64)
	}
	return [][]string{
		{"api_base_url", c.APIBaseURL},
		{"proxy_mode", c.ProxyMode},
		{"proxy_host", c.ProxyHost},
		{"proxy_port", strconv.Itoa(c.ProxyPort)},
		{"proxy_user", c.ProxyUser},
		{"no_proxy", c.NoProxy},
		{"proxy_warmup", strconv.FormatBool(c.ProxyWarmup)},
		{"max_retries", strconv.Itoa(c.MaxRetries)},
		{"request_timeout", timeout},
		{"rate_limit", rate},
		{"download_target", c.DownloadTarget},
		{"desktop_notify", strconv.FormatBool(c.DesktopNotify)},
		{"s3_region", c.S3Region},
		{"s3_endpoint", c.S3Endpoint},
		{"azure_account_url", c.AzureAccountURL},
	}
}

// MergeWithFlagsAndTokenFile merges config with flags, token file, and environment variables
// Priority (highest to lowest):
//  1. --token flag (command line)
//  2. NOTESDASH_TOKEN environment variable
//  3. --token-file flag (explicit token file path)
//  4. Default token file (~/.config/notesdash/token)
//
// Warning: If multiple sources are set, only the highest priority source is used.
func (c *Config) MergeWithFlagsAndTokenFile(token, tokenFilePath, apiBaseURL, proxyMode, proxyHost string, proxyPort int) {
	var tokenSources []string

	var defaultToken string
	if defaultTokenPath := GetDefaultTokenPath(); defaultTokenPath != "" {
		if t, err := ReadTokenFile(defaultTokenPath); err == nil && t != "" {
			defaultToken = t
			tokenSources = append(tokenSources, fmt.Sprintf("default token file (%s)", defaultTokenPath))
		}
	}

	var explicitToken string
	if tokenFilePath != "" {
		if t, err := ReadTokenFile(tokenFilePath); err == nil && t != "" {
			explicitToken = t
			tokenSources = append(tokenSources, "--token-file flag")
		} else if err != nil {
			log.Warn().Err(err).Str("path", tokenFilePath).Msg("could not read token file")
		}
	}

	envToken := os.Getenv("NOTESDASH_TOKEN")
	if envToken != "" {
		tokenSources = append(tokenSources, "NOTESDASH_TOKEN environment variable")
	}

	if token != "" {
		tokenSources = append(tokenSources, "--token flag")
	}

	if len(tokenSources) > 1 {
		log.Warn().Strs("sources", tokenSources).
			Str("using", tokenSources[len(tokenSources)-1]).
			Msg("multiple token sources detected (precedence: --token > NOTESDASH_TOKEN > --token-file > default token file)")
	}

	// Lowest to highest, each overwriting the previous
	if defaultToken != "" {
		c.Token = defaultToken
	}
	if explicitToken != "" {
		c.Token = explicitToken
	}
	if envToken != "" {
		c.Token = envToken
	}
	if token != "" {
		c.Token = token
	}

	if envURL := os.Getenv("NOTESDASH_URL"); envURL != "" {
		c.APIBaseURL = envURL
	}
	if envProxy := os.Getenv("HTTPS_PROXY"); envProxy != "" && c.ProxyHost == "" {
		c.parseProxyURL(envProxy)
	}

	if apiBaseURL != "" {
		c.APIBaseURL = apiBaseURL
	}
	if proxyMode != "" {
		c.ProxyMode = proxyMode
	}
	if proxyHost != "" {
		c.ProxyHost = proxyHost
	}
	if proxyPort > 0 {
		c.ProxyPort = proxyPort
	}

	c.APIBaseURL = NormalizeBaseURL(c.APIBaseURL)
}

// NormalizeBaseURL trims trailing slashes, drops a trailing /api segment and
// adds an http scheme when none is given. The notes server is usually local,
// so plain http is the sensible default.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	u = strings.TrimRight(u, "/")
	u = strings.TrimSuffix(u, constants.APIPathPrefix)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return u
}

// parseProxyURL parses a proxy URL from environment variable
func (c *Config) parseProxyURL(proxyURL string) {
	proxyURL = strings.TrimPrefix(proxyURL, "http://")
	proxyURL = strings.TrimPrefix(proxyURL, "https://")

	parts := strings.Split(proxyURL, ":")
	if len(parts) >= 1 {
		c.ProxyHost = parts[0]
	}
	if len(parts) >= 2 {
		if port, err := strconv.Atoi(strings.TrimRight(parts[1], "/")); err == nil {
			c.ProxyPort = port
		}
	}
	if c.ProxyHost != "" && (c.ProxyMode == "no-proxy" || c.ProxyMode == "") {
		c.ProxyMode = "system"
	}
}

// UsesPlaceholderToken reports whether the config falls back to the
// server's built-in placeholder credential.
func (c *Config) UsesPlaceholderToken() bool {
	return c.Token == "" || c.Token == constants.PlaceholderToken
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	switch strings.ToLower(c.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return fmt.Errorf("unsupported proxy mode: %s", c.ProxyMode)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	return nil
}
