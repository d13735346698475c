// Package paths provides utilities for file path handling in downloads.
package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileForDownload is a record queued for download with its destination.
type FileForDownload struct {
	FileID    string // catalog id
	Name      string // original file name
	LocalPath string // destination path or object key
}

// ResolveCollisions makes every LocalPath in a batch unique. Files sharing
// a path get their id inserted before the extension:
//
//	output.pdf -> output_ABC123.pdf
//
// This keeps concurrent downloads from writing to the same destination.
// Returns the slice (modified in place) and the number of files involved
// in collisions.
func ResolveCollisions(files []FileForDownload) ([]FileForDownload, int) {
	if len(files) == 0 {
		return files, 0
	}

	pathToIndices := make(map[string][]int)
	for i, f := range files {
		pathToIndices[f.LocalPath] = append(pathToIndices[f.LocalPath], i)
	}

	collisionCount := 0
	for path, indices := range pathToIndices {
		if len(indices) <= 1 {
			continue
		}
		collisionCount += len(indices)
		ext := filepath.Ext(path)
		base := strings.TrimSuffix(path, ext)
		for _, idx := range indices {
			files[idx].LocalPath = fmt.Sprintf("%s_%s%s", base, files[idx].FileID, ext)
		}
	}

	return files, collisionCount
}

// maxUniqueAttempts bounds the " (n)" suffix search in UniquePath.
const maxUniqueAttempts = 10000

// UniquePath returns dir/name, or "name (1).ext", "name (2).ext", ...
// when that path already exists on disk.
func UniquePath(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
		return candidate, nil
	} else if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i < maxUniqueAttempts; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}
