package diskspace

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	available, ok := Available(dir)
	if !ok {
		t.Skip("free space is not readable here")
	}

	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{name: "small file", size: 1024},
		{name: "empty file", size: 0},
		{name: "more than the disk", size: available + 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(dir, tt.size)
			if tt.wantErr {
				if !IsInsufficientSpace(err) {
					t.Errorf("Check(%d) = %v, want InsufficientSpaceError", tt.size, err)
				}
				return
			}
			if err != nil {
				t.Errorf("Check(%d) = %v", tt.size, err)
			}
		})
	}
}

func TestCheckUnreadableDirPasses(t *testing.T) {
	if err := Check(filepath.Join(t.TempDir(), "missing", "deeper"), 1<<40); err != nil {
		t.Errorf("Check on a missing dir = %v, want nil", err)
	}
}

func TestInsufficientSpaceError(t *testing.T) {
	err := &InsufficientSpaceError{Path: "/data/notes", RequiredBytes: 100 << 20, AvailableBytes: 50 << 20}

	msg := err.Error()
	for _, want := range []string{"/data/notes", "100 MiB", "50 MiB"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q is missing %q", msg, want)
		}
	}

	if !IsInsufficientSpace(fmt.Errorf("save: %w", err)) {
		t.Error("wrapped error was not recognised")
	}
	if IsInsufficientSpace(fmt.Errorf("other")) || IsInsufficientSpace(nil) {
		t.Error("unrelated error was recognised")
	}
}
