package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/ini.v1"
)

// iniSections maps INI section/key pairs to the flat keys understood by Config.set.
var iniSections = map[string]map[string]string{
	"api": {
		"base_url":        "api_base_url",
		"token":           "token",
		"max_retries":     "max_retries",
		"request_timeout": "request_timeout",
		"rate_limit":      "rate_limit",
	},
	"proxy": {
		"mode":     "proxy_mode",
		"host":     "proxy_host",
		"port":     "proxy_port",
		"user":     "proxy_user",
		"password": "proxy_password",
		"no_proxy": "no_proxy",
		"warmup":   "proxy_warmup",
	},
	"download": {
		"target":         "download_target",
		"desktop_notify": "desktop_notify",
	},
	"storage": {
		"s3_region":         "s3_region",
		"s3_endpoint":       "s3_endpoint",
		"azure_account_url": "azure_account_url",
	},
}

// LoadConfigINI loads configuration from an INI profile:
//
//	[api]
//	base_url = http://notes.lan:5000
//	max_retries = 2
//	[proxy]
//	mode = system
//	[download]
//	target = s3://course-notes/downloads
//
// A missing file yields the defaults.
func LoadConfigINI(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config INI: %w", err)
	}

	for sectionName, keys := range iniSections {
		section := iniFile.Section(sectionName)
		for iniKey, flatKey := range keys {
			if !section.HasKey(iniKey) {
				continue
			}
			if err := cfg.set(flatKey, section.Key(iniKey).String()); err != nil {
				return nil, fmt.Errorf("config %s [%s]: %w", path, sectionName, err)
			}
		}
	}

	return cfg, nil
}

// SaveConfigINI writes cfg as an INI profile. Secrets are never written.
func SaveConfigINI(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	values := make(map[string]string)
	for _, record := range cfg.records() {
		values[record[0]] = record[1]
	}

	iniFile := ini.Empty()
	for _, sectionName := range []string{"api", "proxy", "download", "storage"} {
		section, err := iniFile.NewSection(sectionName)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", sectionName, err)
		}
		for iniKey, flatKey := range iniSections[sectionName] {
			v, ok := values[flatKey]
			if !ok || v == "" {
				continue
			}
			section.Key(iniKey).SetValue(v)
		}
	}

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}
