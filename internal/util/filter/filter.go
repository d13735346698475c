// Package filter narrows a fetched file list for the CLI.
// It is shared by `files list` and `files download --all` so both select
// the same records for the same flags.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/studyvault/notesdash/internal/models"
)

// Config holds filter configuration.
type Config struct {
	// Include patterns (glob-style) matched against the original file name.
	// Empty means include all.
	// Example: []string{"*.pdf", "week*"}
	Include []string

	// Exclude patterns (glob-style). Takes precedence over Include.
	Exclude []string

	// Search terms (case-insensitive substring match against title,
	// original name and description). A record must match ALL terms.
	Search []string

	// Types keeps only records whose type is listed (case-insensitive).
	// Example: []string{"PDF", "docx"}
	Types []string
}

// IsEmpty reports whether the config filters nothing.
func (c Config) IsEmpty() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0 && len(c.Search) == 0 && len(c.Types) == 0
}

// Apply filters records based on the filter configuration.
func Apply(files []models.FileRecord, config Config) []models.FileRecord {
	if config.IsEmpty() {
		return files
	}

	filtered := make([]models.FileRecord, 0, len(files))
	for _, f := range files {
		if matches(f, config) {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

func matches(f models.FileRecord, config Config) bool {
	name := strings.ToLower(f.OriginalName)

	// 1. Exclude patterns first (highest priority)
	for _, pattern := range config.Exclude {
		if matchName(name, pattern) {
			return false
		}
	}

	// 2. Include patterns
	if len(config.Include) > 0 {
		included := false
		for _, pattern := range config.Include {
			if matchName(name, pattern) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	// 3. Types
	if len(config.Types) > 0 {
		ok := false
		for _, t := range config.Types {
			if strings.EqualFold(t, f.Type) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	// 4. Search terms
	if len(config.Search) > 0 {
		haystack := strings.ToLower(f.Title + " " + f.OriginalName + " " + f.Description)
		for _, term := range config.Search {
			if !strings.Contains(haystack, strings.ToLower(term)) {
				return false
			}
		}
	}

	return true
}

// matchName globs pattern against the lowercased name and its base.
func matchName(name, pattern string) bool {
	pattern = strings.ToLower(pattern)
	if matched, _ := filepath.Match(pattern, name); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, filepath.Base(name))
	return matched
}

// ParsePatternList parses a comma-separated list of patterns into a slice.
// Example: "*.pdf,*.txt" -> []string{"*.pdf", "*.txt"}
func ParsePatternList(patternStr string) []string {
	if patternStr == "" {
		return nil
	}
	parts := strings.Split(patternStr, ",")
	patterns := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
