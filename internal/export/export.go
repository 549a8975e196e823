package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilexum-group/amcache/internal/utils"
	"github.com/ilexum-group/amcache/pkg/models"
)

// Format names an export encoding.
type Format string

// Supported formats.
const (
	FormatCSV    Format = "csv"
	FormatJSONL  Format = "jsonl"
	FormatSQLite Format = "sqlite"
	FormatTable  Format = "table"
)

// ErrUnknownFormat is returned for format names ParseFormat does not know.
var ErrUnknownFormat = errors.New("unknown export format")

// ErrNotStreamable is returned when a file-only format is written to a stream.
var ErrNotStreamable = errors.New("format cannot be written to a stream")

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSONL, FormatSQLite, FormatTable:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the conventional file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSONL:
		return ".jsonl"
	case FormatSQLite:
		return ".db"
	case FormatTable:
		return ".txt"
	default:
		return ".csv"
	}
}

// Write encodes entries to w in a streamable format.
func Write(w io.Writer, format Format, entries []models.Entry) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatJSONL:
		return WriteJSONL(w, entries)
	case FormatTable:
		return WriteTable(w, entries)
	case FormatSQLite:
		return fmt.Errorf("%w: %s", ErrNotStreamable, format)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteFile exports a result set to path. Stream formats replace the file
// once the export is complete; sqlite appends the run to the database.
func WriteFile(path string, format Format, rs *models.ResultSet) error {
	if format == FormatSQLite {
		if err := WriteSQLite(path, rs); err != nil {
			return err
		}
		utils.LogInfo("Export written", map[string]string{"path": path, "format": string(format), "run_id": rs.ID})
		return nil
	}

	// Written beside the target and renamed, so a failed export leaves any
	// previous file intact.
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return sinkError(err)
	}
	tmp := f.Name()
	if err := Write(f, format, rs.Entries()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return sinkError(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return sinkError(err)
	}

	utils.LogInfo("Export written", map[string]string{"path": path, "format": string(format), "run_id": rs.ID})
	return nil
}
