package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/studyvault/notesdash/internal/events"
	"github.com/studyvault/notesdash/internal/models"
)

func records(subjects ...string) []models.FileRecord {
	out := make([]models.FileRecord, len(subjects))
	for i, s := range subjects {
		out[i] = models.FileRecord{ID: string(rune('a' + i)), Subject: s}
	}
	return out
}

func TestRecompute(t *testing.T) {
	tests := []struct {
		name  string
		files []models.FileRecord
		want  map[string]int
	}{
		{
			name:  "empty",
			files: nil,
			want:  map[string]int{},
		},
		{
			name:  "known subjects",
			files: records("java", "java", "python"),
			want:  map[string]int{"java": 2, "python": 1},
		},
		{
			name:  "unknown subject counts only toward total",
			files: records("java", "astrology"),
			want:  map[string]int{"java": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Recompute(tt.files)
			if len(agg) != len(Subjects) {
				t.Fatalf("len(agg) = %d, want %d (every key present)", len(agg), len(Subjects))
			}
			sum := 0
			for _, key := range SubjectKeys() {
				if agg[key] != tt.want[key] {
					t.Errorf("agg[%s] = %d, want %d", key, agg[key], tt.want[key])
				}
				sum += agg[key]
			}
			if sum > len(tt.files) {
				t.Errorf("sum %d exceeds total %d", sum, len(tt.files))
			}
			if _, ok := agg["astrology"]; ok {
				t.Error("unknown subject must not appear in aggregates")
			}
		})
	}
}

func TestDistinctSubjects(t *testing.T) {
	if got := DistinctSubjects(records("java", "java", "astrology", "")); got != 3 {
		t.Errorf("DistinctSubjects() = %d, want 3", got)
	}
	if got := DistinctSubjects(nil); got != 0 {
		t.Errorf("DistinctSubjects(nil) = %d, want 0", got)
	}
}

func TestSubjectLookups(t *testing.T) {
	if !IsKnownSubject("css") || IsKnownSubject("CSS") || IsKnownSubject("astrology") {
		t.Error("IsKnownSubject mismatch")
	}
	if SubjectTitle("tamil") != "Tamil Language & Literature" {
		t.Errorf("SubjectTitle(tamil) = %q", SubjectTitle("tamil"))
	}
	if SubjectTitle("astrology") != "astrology" {
		t.Error("unknown subject title should echo the key")
	}
	keys := SubjectKeys()
	if keys[0] != "tamil" || keys[len(keys)-1] != "other" {
		t.Errorf("SubjectKeys order = %v", keys)
	}
}

func TestFilterBySubject(t *testing.T) {
	files := records("java", "Java", "python")
	if got := FilterBySubject(files, "JAVA"); len(got) != 2 {
		t.Errorf("FilterBySubject(JAVA) = %d records, want 2", len(got))
	}
	if got := FilterBySubject(files, ""); len(got) != 3 {
		t.Errorf("FilterBySubject(\"\") = %d records, want 3", len(got))
	}
}

func TestStateSetFilesPublishes(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventCatalogChanged)

	s := NewState(bus)
	if s.Loaded() {
		t.Error("new state should not be loaded")
	}

	input := records("java", "css")
	s.SetFiles(input)
	input[0].Subject = "mutated"

	if s.Total() != 2 || !s.Loaded() {
		t.Errorf("Total=%d Loaded=%v", s.Total(), s.Loaded())
	}
	if s.Aggregates()["java"] != 1 {
		t.Error("state must copy the input slice")
	}
	if files := s.Files(); files[1].Subject != "css" {
		t.Errorf("Files() = %+v", files)
	}

	select {
	case ev := <-ch:
		if ev.(*events.CatalogEvent).Total != 2 {
			t.Errorf("event total = %d", ev.(*events.CatalogEvent).Total)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no catalog event")
	}
}

func TestStateSetErrorKeepsCollection(t *testing.T) {
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventCatalogError)

	s := NewState(bus)
	s.SetFiles(records("java"))

	boom := errors.New("Load files failed: 500 Internal Server Error")
	s.SetError(boom)

	if s.Total() != 1 || s.Aggregates()["java"] != 1 {
		t.Error("failed load must keep the prior collection")
	}
	if !errors.Is(s.LastError(), boom) || !s.Loaded() {
		t.Errorf("LastError=%v Loaded=%v", s.LastError(), s.Loaded())
	}
	select {
	case <-ch:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("no catalog error event")
	}

	s.SetFiles(nil)
	if s.LastError() != nil {
		t.Error("successful load must clear the error")
	}
}

func TestStateAggregatesAreCopies(t *testing.T) {
	s := NewState(nil)
	agg := s.Aggregates()
	agg["java"] = 99
	if s.Aggregates()["java"] != 0 {
		t.Error("Aggregates() must return a copy")
	}
}
