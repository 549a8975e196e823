package hive

import (
	"fmt"
	"strings"
)

// Memory is an in-memory hive. Keys are backslash-separated paths; lookups of
// keys and value names are case-insensitive like the registry.
type Memory struct {
	name  string
	roots map[string]*MemoryRoot
	// OpenErr makes Open fail, to simulate an unreadable source.
	OpenErr error
}

// MemoryRoot holds the records of one key.
type MemoryRoot struct {
	records []*MemoryRecord
	// ChildrenErr makes Children fail.
	ChildrenErr error
}

// MemoryRecord is one subkey with its values.
type MemoryRecord struct {
	name    string
	strings map[string]string
	numbers map[string]uint64
	// ValuesErr makes Values fail, to simulate an unreadable record.
	ValuesErr error
}

// NewMemory creates an empty in-memory hive.
func NewMemory(name string) *Memory {
	return &Memory{name: name, roots: make(map[string]*MemoryRoot)}
}

// AddRoot creates (or returns) the root at path.
func (m *Memory) AddRoot(path string) *MemoryRoot {
	key := strings.ToLower(path)
	if r, ok := m.roots[key]; ok {
		return r
	}
	r := &MemoryRoot{}
	m.roots[key] = r
	return r
}

// AddRecord appends a record. Records enumerate in insertion order.
func (r *MemoryRoot) AddRecord(name string) *MemoryRecord {
	rec := &MemoryRecord{
		name:    name,
		strings: make(map[string]string),
		numbers: make(map[string]uint64),
	}
	r.records = append(r.records, rec)
	return rec
}

// SetString stores a string value and returns the record for chaining.
func (rec *MemoryRecord) SetString(name, value string) *MemoryRecord {
	rec.strings[strings.ToLower(name)] = value
	return rec
}

// SetUint64 stores a QWORD value and returns the record for chaining.
func (rec *MemoryRecord) SetUint64(name string, value uint64) *MemoryRecord {
	rec.numbers[strings.ToLower(name)] = value
	return rec
}

// Open implements Opener.
func (m *Memory) Open() (Reader, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	return m, nil
}

// Path implements Opener.
func (m *Memory) Path() string {
	return m.name
}

// OpenRoot implements Reader.
func (m *Memory) OpenRoot(path string) (Root, error) {
	r, ok := m.roots[strings.ToLower(path)]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	return r, nil
}

// Close implements Reader.
func (m *Memory) Close() error {
	return nil
}

// Children implements Root.
func (r *MemoryRoot) Children() ([]Record, error) {
	if r.ChildrenErr != nil {
		return nil, r.ChildrenErr
	}
	out := make([]Record, len(r.records))
	for i, rec := range r.records {
		out[i] = rec
	}
	return out, nil
}

// Name implements Record.
func (rec *MemoryRecord) Name() string {
	return rec.name
}

// Values implements Record.
func (rec *MemoryRecord) Values() (ValueSet, error) {
	if rec.ValuesErr != nil {
		return nil, rec.ValuesErr
	}
	return rec, nil
}

// ReadString implements ValueSet.
func (rec *MemoryRecord) ReadString(name string) (string, bool) {
	v, ok := rec.strings[strings.ToLower(name)]
	return v, ok
}

// ReadUint64 implements ValueSet.
func (rec *MemoryRecord) ReadUint64(name string) (uint64, bool) {
	v, ok := rec.numbers[strings.ToLower(name)]
	return v, ok
}
