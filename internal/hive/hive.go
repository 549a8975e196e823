// Package hive defines the read-only view of a registry hive used by extraction,
// with an offline-file implementation and an in-memory one.
package hive

import "errors"

// ErrNotFound is returned by OpenRoot when the requested key does not exist.
var ErrNotFound = errors.New("hive: key not found")

// Opener produces a Reader. Opening is the only step that may fail for the whole hive.
type Opener interface {
	Open() (Reader, error)
	// Path identifies the source for logs and reports.
	Path() string
}

// Reader gives access to record roots inside an opened hive.
type Reader interface {
	// OpenRoot opens a key by backslash-separated path relative to the hive root.
	// A missing key yields an error matching ErrNotFound.
	OpenRoot(path string) (Root, error)
	Close() error
}

// Root is a key whose immediate children are records.
type Root interface {
	Children() ([]Record, error)
}

// Record is one candidate record under a root.
type Record interface {
	Name() string
	// Values opens the record's value set.
	Values() (ValueSet, error)
}

// ValueSet reads typed values by name. Absence is reported through the bool,
// never as an error.
type ValueSet interface {
	ReadString(name string) (string, bool)
	ReadUint64(name string) (uint64, bool)
}
