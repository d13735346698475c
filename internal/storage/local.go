package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/studyvault/notesdash/internal/diskspace"
	"github.com/studyvault/notesdash/internal/util/paths"
	"github.com/studyvault/notesdash/internal/util/sanitize"
)

// LocalSaver writes files into a directory without overwriting existing
// ones: "notes.pdf" becomes "notes (1).pdf" when taken.
type LocalSaver struct {
	Dir string
}

// NewLocalSaver returns a saver for dir.
func NewLocalSaver(dir string) *LocalSaver {
	return &LocalSaver{Dir: dir}
}

// Save writes data under a collision-free name and returns its path.
func (l *LocalSaver) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	if err := diskspace.Check(l.Dir, int64(len(data))); err != nil {
		return "", err
	}

	name = sanitize.FileName(name)
	// O_EXCL closes the gap between picking a name and creating it when
	// several downloads run at once.
	for attempt := 0; attempt < 5; attempt++ {
		dest, err := paths.UniquePath(l.Dir, name)
		if err != nil {
			return "", err
		}
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dest, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(dest)
			return "", fmt.Errorf("failed to write %s: %w", dest, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", dest, err)
		}
		return dest, nil
	}
	return "", fmt.Errorf("could not reserve a file name for %s in %s", name, l.Dir)
}

func (l *LocalSaver) String() string {
	return l.Dir
}
