package export

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilexum-group/amcache/internal/filetime"
	"github.com/ilexum-group/amcache/internal/utils"
	"github.com/ilexum-group/amcache/pkg/models"
)

func TestMain(m *testing.M) {
	utils.DefaultLogger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func fixtureEntries() []models.Entry {
	return []models.Entry{
		{
			SHA1:      "ABC123",
			Path:      `C:\Users\Public\evil.exe`,
			Size:      73802,
			FirstSeen: filetime.Decode(132000000000000000),
			Notes:     []string{"suspicious path (temp/downloads/public)"},
			Root:      `Root\File`,
		},
		{
			SHA1:      "3f786850e387550fdab836ed7e6dc881de23001b",
			Path:      `C:\Program Files\Contoso, Ltd\app.exe`,
			Size:      1048576,
			Company:   "Contoso, Ltd",
			Product:   "Contoso App",
			FirstSeen: filetime.Decode(131000000000000000),
			Notes:     []string{"signed", "packed"},
			Root:      `Root\InventoryApplicationFile`,
		},
		{
			Path: `C:\Windows\System32\svchost.exe`,
			Root: `Root\InventoryApplicationFile`,
		},
	}
}

func fixtureResultSet(id string) *models.ResultSet {
	return models.NewResultSet(id, "Amcache.hve", fixtureEntries(), models.ExtractionStats{
		RootsVisited: 2,
		Retained:     3,
		Discarded:    1,
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteCSVGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, fixtureEntries()))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "entries", buf.Bytes())
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, CSVHeader+"\n", buf.String())
}

func TestWriteCSVSinkFailure(t *testing.T) {
	err := WriteCSV(failingWriter{}, fixtureEntries())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExportSink))
	assert.Contains(t, err.Error(), "disk full")
}

func TestCSVRoundTrip(t *testing.T) {
	want := fixtureEntries()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, want))
	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(want))

	for i := range want {
		assert.Equal(t, want[i].SHA1, got[i].SHA1)
		assert.Equal(t, want[i].Path, got[i].Path)
		assert.Equal(t, want[i].Size, got[i].Size)
		assert.Equal(t, want[i].Company, got[i].Company)
		assert.Equal(t, want[i].Product, got[i].Product)
		assert.Equal(t, want[i].FirstSeen.String(), got[i].FirstSeen.String())
		assert.Equal(t, want[i].Notes, got[i].Notes)
		assert.Empty(t, got[i].Root)
	}
}

func TestReadCSVRejectsForeignDocuments(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMalformedExport))

	_, err = ReadCSV(strings.NewReader("a,b,c,d,e,f,g\n"))
	assert.True(t, errors.Is(err, ErrMalformedExport))

	_, err = ReadCSV(strings.NewReader(CSVHeader + "\n\"x\",\"y\",big,\"\",\"\",\"N/A\",\"\"\n"))
	assert.True(t, errors.Is(err, ErrMalformedExport))

	_, err = ReadCSV(strings.NewReader(CSVHeader + "\n\"x\",\"y\",1,\"\",\"\",\"yesterday\",\"\"\n"))
	assert.True(t, errors.Is(err, ErrMalformedExport))
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, fixtureEntries()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first, last TimelineEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))

	assert.Equal(t, EventProgramSeen, first.Type)
	assert.Equal(t, "2019-04-17T18:40:00Z", first.Time)
	assert.Equal(t, "ABC123", first.SHA1)
	assert.Equal(t, `Root\File`, first.Root)

	assert.Equal(t, EventProgramUndated, last.Type)
	assert.Empty(t, last.Time)
	assert.NotContains(t, lines[2], `"time"`)
}

func TestWriteJSONLSinkFailure(t *testing.T) {
	err := WriteJSONL(failingWriter{}, fixtureEntries())
	assert.True(t, errors.Is(err, ErrExportSink))
}

func TestWriteSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.db")
	require.NoError(t, WriteSQLite(path, fixtureResultSet("run-1")))
	require.NoError(t, WriteSQLite(path, fixtureResultSet("run-2")))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var runs, entries int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&entries))
	assert.Equal(t, 2, runs)
	assert.Equal(t, 6, entries)

	rows, err := db.Query(`SELECT sha1, first_seen, first_seen_unix, notes FROM entries WHERE run_id = ? ORDER BY seq`, "run-1")
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	var unix []sql.NullInt64
	for rows.Next() {
		var sha1, firstSeen, notes string
		var u sql.NullInt64
		require.NoError(t, rows.Scan(&sha1, &firstSeen, &u, &notes))
		got = append(got, sha1+"|"+firstSeen+"|"+notes)
		unix = append(unix, u)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{
		"ABC123|2019-04-17 18:40:00|suspicious path (temp/downloads/public)",
		"3f786850e387550fdab836ed7e6dc881de23001b|2016-02-15 08:53:20|signed; packed",
		"|N/A|",
	}, got)
	assert.Equal(t, int64(1555526400), unix[0].Int64)
	assert.False(t, unix[2].Valid)
}

func TestWriteSQLiteOversizedSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.db")
	entries := []models.Entry{
		{Path: `C:\a.exe`, Size: math.MaxInt64},
		{Path: `C:\b.exe`, Size: math.MaxUint64},
	}
	rs := models.NewResultSet("big", "Amcache.hve", entries, models.ExtractionStats{Retained: 2})
	require.NoError(t, WriteSQLite(path, rs))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT size FROM entries WHERE run_id = ? ORDER BY seq`, "big")
	require.NoError(t, err)
	defer rows.Close()

	var sizes []sql.NullInt64
	for rows.Next() {
		var s sql.NullInt64
		require.NoError(t, rows.Scan(&s))
		sizes = append(sizes, s)
	}
	require.NoError(t, rows.Err())
	require.Len(t, sizes, 2)

	assert.Equal(t, sql.NullInt64{Int64: math.MaxInt64, Valid: true}, sizes[0])
	assert.False(t, sizes[1].Valid, "a size past int64 must not wrap negative")
}

func TestWriteSQLiteDuplicateRunFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.db")
	require.NoError(t, WriteSQLite(path, fixtureResultSet("same")))

	err := WriteSQLite(path, fixtureResultSet("same"))
	assert.True(t, errors.Is(err, ErrExportSink))
}

func TestFormatSize(t *testing.T) {
	cases := map[uint64]string{
		0:             "0 B",
		1023:          "1023 B",
		1024:          "1 KB",
		1048575:       "1023 KB",
		1048576:       "1 MB",
		1073741823:    "1023 MB",
		1073741824:    "1 GB",
		5 << 30:       "5 GB",
		1<<40 + 12345: "1024 GB",
	}
	for size, want := range cases {
		assert.Equal(t, want, FormatSize(size), "size %d", size)
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, fixtureEntries()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SHA1"))
	assert.Contains(t, lines[1], "72 KB")
	assert.Contains(t, lines[2], "1 MB")
	assert.Contains(t, lines[3], "N/A")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"":        FormatCSV,
		"CSV":     FormatCSV,
		"jsonl":   FormatJSONL,
		" SQLite": FormatSQLite,
		"table":   FormatTable,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestWriteRejectsSQLiteStream(t *testing.T) {
	err := Write(io.Discard, FormatSQLite, fixtureEntries())
	assert.True(t, errors.Is(err, ErrNotStreamable))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	rs := fixtureResultSet("run-file")

	csvPath := filepath.Join(dir, "out"+FormatCSV.Extension())
	require.NoError(t, WriteFile(csvPath, FormatCSV, rs))

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	entries, err := ReadCSV(f)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	dbPath := filepath.Join(dir, "out"+FormatSQLite.Extension())
	require.NoError(t, WriteFile(dbPath, FormatSQLite, rs))
	assert.FileExists(t, dbPath)

	err = WriteFile(filepath.Join(dir, "missing", "out.csv"), FormatCSV, rs)
	assert.True(t, errors.Is(err, ErrExportSink))
}

func TestWriteFileKeepsPreviousExportOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous export\n"), 0o600))

	err := WriteFile(path, Format("xml"), fixtureResultSet("run-bad"))
	require.ErrorIs(t, err, ErrUnknownFormat)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous export\n", string(data))

	leftovers, err := filepath.Glob(filepath.Join(dir, ".out.csv.*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteFileReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	require.NoError(t, WriteFile(path, FormatJSONL, fixtureResultSet("run-new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
	assert.Equal(t, 3, strings.Count(string(data), "\n"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the export itself remains")
}
