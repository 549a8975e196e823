package models

import (
	"crypto/md5"  //nolint:gosec // MD5 used for forensic verification, not security
	"crypto/sha1" //nolint:gosec // SHA1 used for forensic verification, not security
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/user"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// NewCustodyRecord starts a custody record for a run of tool at version.
// Host and user are filled in from the running process.
func NewCustodyRecord(tool, version, caseID string) *CustodyRecord {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	return &CustodyRecord{
		ID:             uuid.New().String(),
		CaseID:         caseID,
		Tool:           tool,
		ToolVersion:    version,
		Hostname:       hostname,
		User:           username,
		Architecture:   runtime.GOOS + "/" + runtime.GOARCH,
		StartTimestamp: time.Now().UTC(),
		LogEntries:     make([]LogEntry, 0),
	}
}

// RecordSourceFromReader hashes the hive content before it is parsed.
func (c *CustodyRecord) RecordSourceFromReader(path string, reader io.Reader) error {
	h := sha256.New()
	size, err := io.Copy(h, reader)
	if err != nil {
		return fmt.Errorf("failed to hash source %s: %w", path, err)
	}
	c.Source = SourceEvidence{
		Path:       path,
		SizeBytes:  size,
		SHA256Hash: hex.EncodeToString(h.Sum(nil)),
	}
	return nil
}

// RecordSourceFile hashes the hive file at path, opened read-only.
func (c *CustodyRecord) RecordSourceFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", path, err)
	}
	defer f.Close()
	return c.RecordSourceFromReader(path, f)
}

// AttachResult copies the run identity and statistics of rs.
func (c *CustodyRecord) AttachResult(rs *ResultSet) {
	if rs == nil {
		return
	}
	stats := rs.Stats
	c.RunID = rs.ID
	c.Stats = &stats
	c.ItemCount = rs.Len()
}

// FinalizeFromReader completes the record by hashing the export read from
// reader with MD5, SHA1 and SHA256 in one pass, and stamps the end time.
func (c *CustodyRecord) FinalizeFromReader(path, format string, reader io.Reader) error {
	c.EndTimestamp = time.Now().UTC()
	c.Duration = c.EndTimestamp.Sub(c.StartTimestamp).String()

	md5Hash := md5.New()   //nolint:gosec // G401: MD5 for forensic verification, not security
	sha1Hash := sha1.New() //nolint:gosec // G401: SHA1 for forensic verification, not security
	sha256Hash := sha256.New()

	size, err := io.Copy(io.MultiWriter(md5Hash, sha1Hash, sha256Hash), reader)
	if err != nil {
		return fmt.Errorf("failed to read and hash export: %w", err)
	}

	c.Export = &ExportArtifact{
		Path:       path,
		Format:     format,
		SizeBytes:  size,
		MD5Hash:    hex.EncodeToString(md5Hash.Sum(nil)),
		SHA1Hash:   hex.EncodeToString(sha1Hash.Sum(nil)),
		SHA256Hash: hex.EncodeToString(sha256Hash.Sum(nil)),
	}
	return nil
}

// Finalize stamps the end time for a run whose export was not written to a file.
func (c *CustodyRecord) Finalize() {
	c.EndTimestamp = time.Now().UTC()
	c.Duration = c.EndTimestamp.Sub(c.StartTimestamp).String()
}

// MarkSent records the upload time.
func (c *CustodyRecord) MarkSent() {
	c.SentAt = time.Now().UTC()
}

// LogError logs an error message to the custody record.
func (c *CustodyRecord) LogError(operation, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	c.LogEntries = append(c.LogEntries, LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     LogLevelError,
		Message:   message,
		Details:   operation,
		Error:     errMsg,
	})
}

// LogInfo logs an informational message to the custody record.
func (c *CustodyRecord) LogInfo(operation, message string) {
	c.LogEntries = append(c.LogEntries, LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     LogLevelInfo,
		Message:   message,
		Details:   operation,
	})
}

// LogWarning logs a warning message to the custody record.
func (c *CustodyRecord) LogWarning(operation, message string) {
	c.LogEntries = append(c.LogEntries, LogEntry{
		Timestamp: time.Now().UTC(),
		Level:     LogLevelWarning,
		Message:   message,
		Details:   operation,
	})
}
