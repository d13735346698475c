// Package catalog holds the last-fetched file collection and the
// per-subject counts derived from it.
package catalog

import (
	"strings"

	"github.com/studyvault/notesdash/internal/models"
)

// Subject is one of the enumerated course subjects.
type Subject struct {
	Key   string
	Title string
}

// Subjects lists the recognized subjects in display order.
var Subjects = []Subject{
	{"tamil", "Tamil Language & Literature"},
	{"english", "English Language & Communication"},
	{"statistics", "Statistics & Data Analysis"},
	{"java", "Java Programming"},
	{"html", "HTML & Web Development"},
	{"css", "CSS Styling"},
	{"javascript", "JavaScript Programming"},
	{"python", "Python Programming"},
	{"mathematics", "Mathematics"},
	{"physics", "Physics"},
	{"chemistry", "Chemistry"},
	{"other", "Other Subjects"},
}

// SubjectKeys returns the enumerated keys in display order.
func SubjectKeys() []string {
	keys := make([]string, len(Subjects))
	for i, s := range Subjects {
		keys[i] = s.Key
	}
	return keys
}

// IsKnownSubject reports whether key is one of the enumerated subjects.
func IsKnownSubject(key string) bool {
	for _, s := range Subjects {
		if s.Key == key {
			return true
		}
	}
	return false
}

// SubjectTitle returns the display title, or the key itself when unknown.
func SubjectTitle(key string) string {
	for _, s := range Subjects {
		if s.Key == key {
			return s.Title
		}
	}
	return key
}

// Recompute counts records per enumerated subject. Every key is present,
// zero when absent. Unrecognized subjects are not counted here.
func Recompute(files []models.FileRecord) map[string]int {
	agg := make(map[string]int, len(Subjects))
	for _, s := range Subjects {
		agg[s.Key] = 0
	}
	for _, f := range files {
		if _, ok := agg[f.Subject]; ok {
			agg[f.Subject]++
		}
	}
	return agg
}

// DistinctSubjects returns the number of distinct subject values present,
// unrecognized ones included.
func DistinctSubjects(files []models.FileRecord) int {
	seen := make(map[string]struct{})
	for _, f := range files {
		seen[f.Subject] = struct{}{}
	}
	return len(seen)
}

// FilterBySubject keeps records whose subject matches key, ignoring case.
// An empty key returns files unchanged.
func FilterBySubject(files []models.FileRecord, key string) []models.FileRecord {
	if key == "" {
		return files
	}
	var out []models.FileRecord
	for _, f := range files {
		if strings.EqualFold(f.Subject, key) {
			out = append(out, f)
		}
	}
	return out
}
