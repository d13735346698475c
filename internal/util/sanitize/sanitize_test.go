package sanitize

import (
	"testing"
)

func TestSanitizeField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal field", "Week 1 Notes", "Week 1 Notes"},
		{"surrounding whitespace", "  Week 1  ", "Week 1"},
		{"invisible chars", "Week\u200B1", "Week1"},
		{"BOM prefix", "\uFEFFjava", "java"},
		{"newlines folded", "Week\r\n1\nNotes", "Week 1 Notes"},
		{"tabs and space runs", "a \t  \t b", "a b"},
		{"empty", "", ""},
		{"only whitespace", "   \t\t   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := SanitizeField(tt.input); result != tt.expected {
				t.Errorf("SanitizeField() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"CRLF", "line1\r\nline2", "line1\nline2"},
		{"CR", "line1\rline2", "line1\nline2"},
		{"blank line runs", "line1\n\n\nline2", "line1\nline2"},
		{"soft hyphen", "loop\u00ADing", "looping"},
		{"trim", "  intro  ", "intro"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := SanitizeText(tt.input); result != tt.expected {
				t.Errorf("SanitizeText() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"week1.pdf", "week1.pdf"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.docx`, "notes.docx"},
		{"what?.txt", "what_.txt"},
		{"a:b*c.pdf", "a_b_c.pdf"},
		{"..", "download"},
		{"", "download"},
		{"\u200B", "download"},
	}

	for _, tt := range tests {
		if result := FileName(tt.input); result != tt.expected {
			t.Errorf("FileName(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestRemoveInvisibleChars(t *testing.T) {
	input := "\u200B\u200C\u200D\uFEFF\u00ADtest\u2060\u180E"
	if result := removeInvisibleChars(input); result != "test" {
		t.Errorf("removeInvisibleChars() = %q, want %q", result, "test")
	}
}
