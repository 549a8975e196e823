// Package export writes extracted entries to files and streams: the CSV
// report, a JSONL timeline, a SQLite case database and a terminal table.
package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ilexum-group/amcache/internal/filetime"
	"github.com/ilexum-group/amcache/pkg/models"
)

// ErrExportSink is returned when the destination rejects a write.
var ErrExportSink = errors.New("export sink failure")

// ErrMalformedExport is returned by ReadCSV for documents it did not produce.
var ErrMalformedExport = errors.New("malformed export")

// CSVHeader is the first line of every CSV export.
const CSVHeader = "SHA1,Path,Size,CompanyName,ProductName,FirstRun,Notes"

// NoteSeparator joins an entry's notes into one field.
const NoteSeparator = "; "

// WriteCSV writes the header and one line per entry, in the given order.
//
// Text fields are wrapped in double quotes as-is. Embedded quotes are not
// escaped, so a field containing `"` will not survive ReadCSV intact.
func WriteCSV(w io.Writer, entries []models.Entry) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader + "\n"); err != nil {
		return sinkError(err)
	}

	for _, e := range entries {
		line := quote(e.SHA1) + "," +
			quote(e.Path) + "," +
			strconv.FormatUint(e.Size, 10) + "," +
			quote(e.Company) + "," +
			quote(e.Product) + "," +
			quote(e.FirstSeen.String()) + "," +
			quote(strings.Join(e.Notes, NoteSeparator)) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return sinkError(err)
		}
	}

	if err := bw.Flush(); err != nil {
		return sinkError(err)
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}

func sinkError(err error) error {
	return fmt.Errorf("%w: %w", ErrExportSink, err)
}

// ReadCSV parses a document written by WriteCSV. Record roots are not part of
// the CSV and come back empty.
func ReadCSV(r io.Reader) ([]models.Entry, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = 7

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedExport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}
	if strings.Join(header, ",") != CSVHeader {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformedExport, strings.Join(header, ","))
	}

	entries := make([]models.Entry, 0)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}

		line, _ := cr.FieldPos(0)
		size, err := strconv.ParseUint(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: size %q", ErrMalformedExport, line, rec[2])
		}
		firstSeen, err := filetime.Parse(rec[5])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedExport, line, err)
		}

		var notes []string
		if rec[6] != "" {
			notes = strings.Split(rec[6], NoteSeparator)
		}

		entries = append(entries, models.Entry{
			SHA1:      rec[0],
			Path:      rec[1],
			Size:      size,
			Company:   rec[3],
			Product:   rec[4],
			FirstSeen: firstSeen,
			Notes:     notes,
		})
	}
	return entries, nil
}
