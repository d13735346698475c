// Package sanitize cleans user-supplied text before it is sent to the
// notes server or used as a local file name.
//
// It removes problematic characters:
//   - Windows/Mac line endings (CRLF/CR → LF)
//   - Invisible Unicode characters (zero-width spaces, etc.)
//   - Path separators and reserved characters in file names
package sanitize

import (
	"regexp"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n+`)

	// Characters not allowed in file names on at least one supported OS
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
)

// invisibleChars are zero-width and other invisible Unicode characters.
var invisibleChars = []string{
	"\u200B", // Zero-width space
	"\u200C", // Zero-width non-joiner
	"\u200D", // Zero-width joiner
	"\uFEFF", // Zero-width no-break space (BOM)
	"\u00AD", // Soft hyphen
	"\u2060", // Word joiner
	"\u180E", // Mongolian vowel separator
}

func removeInvisibleChars(s string) string {
	for _, char := range invisibleChars {
		s = strings.ReplaceAll(s, char, "")
	}
	return s
}

// SanitizeField cleans a single-line form field such as a title or subject.
func SanitizeField(field string) string {
	if field == "" {
		return field
	}
	field = removeInvisibleChars(field)
	field = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(field)
	field = spaceRun.ReplaceAllString(field, " ")
	return strings.TrimSpace(field)
}

// SanitizeText cleans a multi-line field such as a description. Line
// endings are normalized and blank-line runs collapsed.
func SanitizeText(text string) string {
	if text == "" {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = removeInvisibleChars(text)
	text = spaceRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// FileName turns a server-supplied name into a safe local base name.
// Directory components are dropped, reserved characters become "_", and
// an empty result falls back to "download".
func FileName(name string) string {
	name = removeInvisibleChars(name)
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = reservedChars.ReplaceAllString(name, "_")
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" {
		return "download"
	}
	return name
}
