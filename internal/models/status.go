package models

import "fmt"

// TestStatus is the payload of GET /api/test.
type TestStatus struct {
	Status    string `json:"status"`
	Method    string `json:"method"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthStatus is the payload of GET /api/health.
type HealthStatus struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp,omitempty"`
	UploadFolder string `json:"upload_folder,omitempty"`
	FilesCount   int    `json:"files_count"`
	// DiskSpaceMB is a number, or the string "unknown" when the server
	// cannot stat its upload folder.
	DiskSpaceMB any    `json:"disk_space_mb,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DiskSpace renders DiskSpaceMB for display.
func (h HealthStatus) DiskSpace() string {
	switch v := h.DiskSpaceMB.(type) {
	case nil:
		return "unknown"
	case float64:
		return fmt.Sprintf("%.2f MB", v)
	default:
		return fmt.Sprint(v)
	}
}

// DebugFileEntry is one in-memory record listed by GET /api/debug/files.
type DebugFileEntry struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Subject      string `json:"subject"`
	Title        string `json:"title"`
}

// DebugInfo is the payload of GET /api/debug/files.
type DebugInfo struct {
	UploadFolder       string           `json:"upload_folder"`
	FolderExists       bool             `json:"folder_exists"`
	FilesInMemory      int              `json:"files_in_memory"`
	PhysicalFilesCount int              `json:"physical_files_count"`
	PhysicalFiles      []string         `json:"physical_files"`
	MemoryFiles        []DebugFileEntry `json:"memory_files"`
	AllowedExtensions  []string         `json:"allowed_extensions"`
	MaxFileSizeMB      float64          `json:"max_file_size_mb"`
}

// OrphanedFiles returns physical files with no matching in-memory record.
func (d DebugInfo) OrphanedFiles() []string {
	known := make(map[string]bool, len(d.MemoryFiles))
	for _, f := range d.MemoryFiles {
		known[f.Filename] = true
	}
	var orphans []string
	for _, name := range d.PhysicalFiles {
		if !known[name] {
			orphans = append(orphans, name)
		}
	}
	return orphans
}
