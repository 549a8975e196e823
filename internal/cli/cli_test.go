package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilexum-group/amcache/internal/amcache"
	"github.com/ilexum-group/amcache/internal/export"
	"github.com/ilexum-group/amcache/internal/hive"
	"github.com/ilexum-group/amcache/internal/utils"
	"github.com/ilexum-group/amcache/pkg/models"
)

func TestMain(m *testing.M) {
	utils.DefaultLogger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func scenarioHive() *hive.Memory {
	m := hive.NewMemory("Amcache.hve")
	m.AddRoot(`Root\File`).AddRecord("0001").
		SetString("101", "ABC123").
		SetString("15", `C:\Users\Public\evil.exe`).
		SetUint64("11", 132000000000000000)
	m.AddRoot(`Root\InventoryApplicationFile`).AddRecord("svchost.exe|1a2b").
		SetString("LowerCaseLongPath", `C:\Windows\System32\svchost.exe`)
	return m
}

func useHive(t *testing.T, m *hive.Memory) {
	t.Helper()
	prev := openHive
	openHive = func(string) hive.Opener { return m }
	t.Cleanup(func() { openHive = prev })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "amcache", cmd.Use)

	for _, name := range []string{"extract", "search", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestExtractFlags(t *testing.T) {
	cmd := NewRootCmd()
	extract, _, err := cmd.Find([]string{"extract"})
	require.NoError(t, err)

	output := extract.Flags().Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
	assert.NotNil(t, extract.Flags().Lookup("hive"))
	assert.NotNil(t, extract.Flags().Lookup("denylist"))
}

func TestExtractToStdout(t *testing.T) {
	useHive(t, scenarioHive())

	stdout, stderr, err := execute(t, "extract", "--no-progress")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, export.CSVHeader, lines[0])
	assert.Equal(t, `"ABC123","C:\Users\Public\evil.exe",0,"","","2019-04-17 18:40:00","suspicious path (temp/downloads/public)"`, lines[1])
	assert.Equal(t, `"","C:\Windows\System32\svchost.exe",0,"","","N/A",""`, lines[2])
	assert.Contains(t, stderr, "entries=2 suspicious=1 output=stdout")
}

func TestExtractToFileWritesCustodyManifest(t *testing.T) {
	useHive(t, scenarioHive())
	out := filepath.Join(t.TempDir(), "amcache.csv")

	_, _, err := execute(t, "extract", "--no-progress", "-o", out, "--case-id", "CASE-9")
	require.NoError(t, err)

	data, err := os.ReadFile(out + CustodySuffix)
	require.NoError(t, err)
	var custody models.CustodyRecord
	require.NoError(t, json.Unmarshal(data, &custody))

	assert.Equal(t, "CASE-9", custody.CaseID)
	assert.Equal(t, 2, custody.ItemCount)
	require.NotNil(t, custody.Export)
	assert.Equal(t, out, custody.Export.Path)
	assert.Len(t, custody.Export.SHA256Hash, 64)
	assert.NotEmpty(t, custody.RunID)
	assert.NotEmpty(t, custody.Syslog)
	assert.True(t, syslogContains(custody.Syslog, "Export written"), "syslog: %v", custody.Syslog)
	assert.True(t, syslogContains(custody.Syslog, "Writing custody record"), "syslog: %v", custody.Syslog)
}

func syslogContains(lines []string, msg string) bool {
	for _, l := range lines {
		if strings.Contains(l, msg) {
			return true
		}
	}
	return false
}

func TestExtractThenSearch(t *testing.T) {
	useHive(t, scenarioHive())
	out := filepath.Join(t.TempDir(), "amcache.csv")

	_, _, err := execute(t, "extract", "--no-progress", "-o", out)
	require.NoError(t, err)

	stdout, _, err := execute(t, "search", out, "EVIL", "-f", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], `"ABC123"`)

	stdout, _, err = execute(t, "search", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "svchost.exe")
	assert.Contains(t, stdout, "0 B")
}

func TestSearchFromStdin(t *testing.T) {
	var stdout bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetIn(strings.NewReader(export.CSVHeader + "\n" + `"ff00","C:\Temp\a.exe",1,"","","N/A",""` + "\n"))
	cmd.SetArgs([]string{"search", "-", "ff", "-f", "jsonl"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), `"sha1":"ff00"`)
}

func TestExtractSourceUnavailable(t *testing.T) {
	m := scenarioHive()
	m.OpenErr = errors.New("access denied")
	useHive(t, m)

	_, _, err := execute(t, "extract", "--no-progress")
	assert.True(t, errors.Is(err, amcache.ErrSourceUnavailable))
}

func TestExtractCustomDenyList(t *testing.T) {
	useHive(t, scenarioHive())
	deny := filepath.Join(t.TempDir(), "deny.yaml")
	require.NoError(t, os.WriteFile(deny, []byte("note: system binary\nfragments: ['\\system32\\']\n"), 0o600))

	stdout, _, err := execute(t, "extract", "--no-progress", "--denylist", deny, "-f", "jsonl")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "system binary")
	assert.Contains(t, lines[1], "system binary")
}

func TestExtractUploadsReport(t *testing.T) {
	useHive(t, scenarioHive())

	var received models.Report
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, _, err := execute(t, "extract", "--no-progress", "-f", "table", "--server-url", server.URL, "--agent-token", "secret")
	require.NoError(t, err)
	assert.Len(t, received.Entries, 2)
	require.NotNil(t, received.Custody)
	assert.Equal(t, 2, received.Custody.ItemCount)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}
