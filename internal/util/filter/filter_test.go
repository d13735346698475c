package filter

import (
	"reflect"
	"testing"

	"github.com/studyvault/notesdash/internal/models"
)

func ids(files []models.FileRecord) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	files := []models.FileRecord{
		{ID: "1", Title: "Week 1", OriginalName: "Week1.PDF", Type: "PDF", Description: "intro to loops"},
		{ID: "2", Title: "Week 2", OriginalName: "week2.docx", Type: "DOCX"},
		{ID: "3", Title: "Cheat sheet", OriginalName: "sheet.txt", Type: "TXT", Description: "loops and maps"},
	}

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"no filter", Config{}, []string{"1", "2", "3"}},
		{"include case-insensitive", Config{Include: []string{"*.pdf"}}, []string{"1"}},
		{"exclude wins", Config{Include: []string{"week*"}, Exclude: []string{"*.docx"}}, []string{"1"}},
		{"types", Config{Types: []string{"txt", "docx"}}, []string{"2", "3"}},
		{"search all terms", Config{Search: []string{"loops", "maps"}}, []string{"3"}},
		{"search title", Config{Search: []string{"WEEK"}}, []string{"1", "2"}},
		{"nothing", Config{Search: []string{"zzz"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(files, tt.cfg))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePatternList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"*.pdf", []string{"*.pdf"}},
		{" *.pdf , ,*.txt ", []string{"*.pdf", "*.txt"}},
	}
	for _, tt := range tests {
		if got := ParsePatternList(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParsePatternList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
