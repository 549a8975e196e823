package models

import (
	"time"
)

const (
	// LogLevelInfo represents general informational messages
	LogLevelInfo = "INFO"

	// LogLevelWarning represents warning messages about potential issues
	LogLevelWarning = "WARNING"

	// LogLevelError represents error messages about failures
	LogLevelError = "ERROR"
)

// CustodyRecord documents one extraction run for the chain of custody:
// who ran it, on which hive, what the hive hashed to before it was read, and
// what the resulting export hashed to.
type CustodyRecord struct {
	// Unique identifier for this record (UUID v4)
	ID string `json:"id"`

	// Case the run belongs to, may be empty
	CaseID string `json:"case_id,omitempty"`

	// Run identifier of the published result set
	RunID string `json:"run_id,omitempty"`

	Tool         string `json:"tool"`
	ToolVersion  string `json:"tool_version"`
	Hostname     string `json:"hostname"`
	User         string `json:"user"`
	Architecture string `json:"architecture"`

	StartTimestamp time.Time `json:"start_timestamp"`
	EndTimestamp   time.Time `json:"end_timestamp"`
	Duration       string    `json:"duration"`

	// Set when the report is uploaded
	SentAt time.Time `json:"sent_at,omitempty"`

	Source SourceEvidence   `json:"source"`
	Export *ExportArtifact  `json:"export,omitempty"`
	Stats  *ExtractionStats `json:"stats,omitempty"`

	// Number of entries in the export
	ItemCount int `json:"item_count"`

	LogEntries []LogEntry `json:"log_entries"`

	// RFC 5424 lines emitted by the tool during the run
	Syslog []string `json:"syslog,omitempty"`
}

// SourceEvidence identifies the hive as it was before extraction.
type SourceEvidence struct {
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes"`
	SHA256Hash string `json:"sha256_hash"`
}

// ExportArtifact identifies the written export. MD5 and SHA1 are kept for
// tools that still index by them; SHA256 is the integrity check.
type ExportArtifact struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	SizeBytes  int64  `json:"size_bytes"`
	MD5Hash    string `json:"md5_hash"`
	SHA1Hash   string `json:"sha1_hash"`
	SHA256Hash string `json:"sha256_hash"`
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // INFO, WARNING, ERROR
	Message   string    `json:"message"`
	Details   string    `json:"details"`
	Error     string    `json:"error,omitempty"`
}
