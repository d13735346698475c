// Package diskspace checks free space before a download is written.
package diskspace

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// SafetyMargin is applied to the bytes a download needs.
const SafetyMargin = 1.1

// InsufficientSpaceError reports a destination without room for a file.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space for %s: need %s, have %s available",
		e.Path, humanize.IBytes(uint64(e.RequiredBytes)), humanize.IBytes(uint64(e.AvailableBytes)))
}

// Check returns an InsufficientSpaceError when the filesystem holding dir
// has less than size*SafetyMargin bytes free. When the free space cannot be
// read (network shares, missing dir) Check returns nil and the write is
// left to fail on its own.
func Check(dir string, size int64) error {
	available, ok := Available(dir)
	if !ok {
		return nil
	}
	required := int64(float64(size) * SafetyMargin)
	if available < required {
		return &InsufficientSpaceError{Path: dir, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// IsInsufficientSpace reports whether err is or wraps an InsufficientSpaceError.
func IsInsufficientSpace(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}
