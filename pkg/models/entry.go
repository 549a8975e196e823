// Package models defines the records produced by amcache extraction runs
package models

import (
	"time"

	"github.com/ilexum-group/amcache/internal/filetime"
)

// Entry is one normalized execution-history record.
// Entries are values; nothing in this module modifies an Entry after it is built.
type Entry struct {
	// Hex SHA-1 digest, empty when not recorded
	SHA1 string `json:"sha1"`

	// Executable path as recorded in the hive
	Path string `json:"path"`

	// File size in bytes. 0 means unknown, not an empty file.
	Size uint64 `json:"size"`

	Company string `json:"company"`
	Product string `json:"product"`

	FirstSeen filetime.Timestamp `json:"first_seen"`

	// Classifier notes, e.g. a suspicious location
	Notes []string `json:"notes,omitempty"`

	// Record root the entry was read from
	Root string `json:"root,omitempty"`
}

// HasForensicValue reports whether the entry carries a hash or a path.
func (e Entry) HasForensicValue() bool {
	return e.SHA1 != "" || e.Path != ""
}

// ExtractionStats records what an extraction skipped. None of it is an error.
type ExtractionStats struct {
	RootsVisited    int      `json:"roots_visited"`
	RootsMissing    []string `json:"roots_missing,omitempty"`
	ChildrenSkipped int      `json:"children_skipped"`
	Discarded       int      `json:"discarded"`
	Retained        int      `json:"retained"`
}

// ResultSet is the ordered, read-only outcome of one extraction run.
// It is built once by NewResultSet and never changed afterwards, so it can be
// shared between goroutines without locking.
type ResultSet struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
	Stats     ExtractionStats `json:"stats"`

	entries []Entry
}

// NewResultSet freezes entries in the given order. The slice is copied.
func NewResultSet(id, source string, entries []Entry, stats ExtractionStats) *ResultSet {
	frozen := make([]Entry, len(entries))
	copy(frozen, entries)
	return &ResultSet{
		ID:        id,
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Stats:     stats,
		entries:   frozen,
	}
}

// Len returns the number of entries.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// At returns the i-th entry.
func (r *ResultSet) At(i int) Entry {
	return r.entries[i]
}

// Entries returns a copy of the ordered entries.
func (r *ResultSet) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
