package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/studyvault/notesdash/internal/logging"
	"github.com/studyvault/notesdash/internal/models"
	"github.com/studyvault/notesdash/internal/progress"
	"github.com/studyvault/notesdash/internal/storage"
)

// blobAPI serves a fixed listing and fixed download bodies.
type blobAPI struct {
	mu      sync.Mutex
	listed  []models.FileRecord
	listErr error
	bodies  map[string]string
	served  []string
}

func (b *blobAPI) ListFiles(ctx context.Context, subject string) ([]models.FileRecord, error) {
	return b.listed, b.listErr
}

func (b *blobAPI) UploadFile(ctx context.Context, upload models.UploadRequest, reporter progress.Reporter) (*models.FileRecord, error) {
	return nil, errors.New("not supported")
}

func (b *blobAPI) UpdateFile(ctx context.Context, id string, update models.UpdateRequest) (*models.FileRecord, error) {
	return nil, errors.New("not supported")
}

func (b *blobAPI) DeleteFile(ctx context.Context, id string) error {
	return errors.New("not supported")
}

func (b *blobAPI) DownloadFile(ctx context.Context, id string, reporter progress.Reporter) (*models.Blob, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body, ok := b.bodies[id]
	if !ok {
		return nil, errors.New("file not found")
	}
	b.served = append(b.served, id)
	return &models.Blob{Data: []byte(body)}, nil
}

func (b *blobAPI) CheckHealth(ctx context.Context) (*models.TestStatus, error) {
	return &models.TestStatus{Message: "ok"}, nil
}

func TestSelectByID(t *testing.T) {
	listed := []models.FileRecord{
		{ID: "a1", OriginalName: "week1.pdf"},
		{ID: "b2", OriginalName: "loops.docx"},
	}

	got := selectByID(listed, []string{"b2", "zz", "a1"})
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	wantIDs := []string{"b2", "zz", "a1"}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("record %d = %s, want %s", i, got[i].ID, id)
		}
	}
	if got[0].OriginalName != "loops.docx" {
		t.Errorf("listed record lost its name: %+v", got[0])
	}
	if got[1].OriginalName != "" {
		t.Errorf("unknown id should be a bare record: %+v", got[1])
	}
}

func TestPlanDownloads(t *testing.T) {
	tests := []struct {
		name           string
		files          []models.FileRecord
		wantPaths      []string
		wantCollisions int
	}{
		{
			name: "unique names",
			files: []models.FileRecord{
				{ID: "a1", OriginalName: "week1.pdf"},
				{ID: "b2", OriginalName: "loops.docx"},
			},
			wantPaths: []string{"week1.pdf", "loops.docx"},
		},
		{
			name: "same name twice",
			files: []models.FileRecord{
				{ID: "a1", OriginalName: "notes.pdf"},
				{ID: "b2", OriginalName: "notes.pdf"},
			},
			wantPaths:      []string{"notes_a1.pdf", "notes_b2.pdf"},
			wantCollisions: 2,
		},
		{
			name:      "missing name falls back to id",
			files:     []models.FileRecord{{ID: "c3"}},
			wantPaths: []string{"c3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			planned, collisions := planDownloads(tt.files)
			if collisions != tt.wantCollisions {
				t.Errorf("collisions = %d, want %d", collisions, tt.wantCollisions)
			}
			for i, want := range tt.wantPaths {
				if planned[i].LocalPath != want {
					t.Errorf("path %d = %q, want %q", i, planned[i].LocalPath, want)
				}
			}
		})
	}
}

func TestExecuteFileDownload(t *testing.T) {
	dir := t.TempDir()
	api := &blobAPI{bodies: map[string]string{
		"a1": "week one",
		"b2": "loops",
	}}
	files := []models.FileRecord{
		{ID: "a1", OriginalName: "week1.pdf"},
		{ID: "b2", OriginalName: "loops.docx"},
	}

	var out bytes.Buffer
	err := executeFileDownload(context.Background(), files, storage.NewLocalSaver(dir), 2, api, logging.NewNopLogger(), &out)
	if err != nil {
		t.Fatalf("executeFileDownload: %v", err)
	}

	for name, want := range map[string]string{"week1.pdf": "week one", "loops.docx": "loops"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s was not saved: %v", name, err)
			continue
		}
		if string(data) != want {
			t.Errorf("%s = %q, want %q", name, data, want)
		}
	}
	if !strings.Contains(out.String(), "Downloaded 2 of 2") {
		t.Errorf("summary missing:\n%s", out.String())
	}
}

func TestExecuteFileDownloadReportsFailures(t *testing.T) {
	dir := t.TempDir()
	api := &blobAPI{bodies: map[string]string{"a1": "week one"}}
	files := []models.FileRecord{
		{ID: "a1", OriginalName: "week1.pdf"},
		{ID: "gone"},
	}

	var out bytes.Buffer
	err := executeFileDownload(context.Background(), files, storage.NewLocalSaver(dir), 1, api, logging.NewNopLogger(), &out)
	if err == nil {
		t.Fatal("expected an error for the missing file")
	}
	if !strings.Contains(err.Error(), "gone") {
		t.Errorf("error %q does not name the failed id", err)
	}
	if !strings.Contains(out.String(), "Downloaded 1 of 2") {
		t.Errorf("summary missing:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "week1.pdf")); err != nil {
		t.Errorf("successful download was not saved: %v", err)
	}
}

func TestExecuteFileDownloadKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "week1.pdf"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	api := &blobAPI{bodies: map[string]string{"a1": "new"}}

	var out bytes.Buffer
	err := executeFileDownload(context.Background(), []models.FileRecord{{ID: "a1", OriginalName: "week1.pdf"}},
		storage.NewLocalSaver(dir), 1, api, logging.NewNopLogger(), &out)
	if err != nil {
		t.Fatal(err)
	}

	if data, _ := os.ReadFile(filepath.Join(dir, "week1.pdf")); string(data) != "old" {
		t.Errorf("existing file was overwritten: %q", data)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "week1 (1).pdf")); string(data) != "new" {
		t.Errorf("new copy = %q, want it saved as 'week1 (1).pdf'", data)
	}
}
