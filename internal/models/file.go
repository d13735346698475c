package models

import (
	"strings"
	"time"
)

// FileRecord is a single catalog entry as returned by the notes server.
// The server owns every field; the client only stages edits to title,
// subject, description and url.
type FileRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	Type         string `json:"type"` // uppercase extension, e.g. "PDF"
	Description  string `json:"description"`
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
	UploadDate   string `json:"uploadDate"`

	// Present in server payloads but not needed by the dashboard core
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// uploadDateLayouts covers RFC3339 and the zone-less ISO form the server emits.
var uploadDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UploadTime parses UploadDate. Zone-less timestamps are read as local time.
func (f FileRecord) UploadTime() (time.Time, error) {
	return ParseTimestamp(f.UploadDate)
}

// ParseTimestamp parses the ISO-8601 variants used by the notes server.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range uploadDateLayouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// UploadRequest describes a file to POST as multipart form data.
type UploadRequest struct {
	Path        string // local file to send
	Title       string
	Subject     string
	Description string
	URL         string
}

// UpdateRequest carries the editable fields for PUT /files/{id}.
// Nil fields are left untouched by the server.
type UpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Subject     *string `json:"subject,omitempty"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
}

// IsEmpty reports whether the request would change nothing.
func (u UpdateRequest) IsEmpty() bool {
	return u.Title == nil && u.Subject == nil && u.Description == nil && u.URL == nil
}

// Blob is a downloaded file body held in memory until it is saved.
type Blob struct {
	Data        []byte
	Name        string
	ContentType string
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int64 {
	return int64(len(b.Data))
}

// LocalFile is a file chosen for upload but not yet sent.
type LocalFile struct {
	Path string
	Name string
	Size int64
}
