// Package config holds the settings of an amcache run, read from the
// environment and overridden by command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ilexum-group/amcache/internal/amcache"
	"github.com/ilexum-group/amcache/internal/export"
)

// DefaultHivePath is where Windows keeps the Amcache hive.
const DefaultHivePath = `C:\Windows\AppCompat\Programs\Amcache.hve`

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the configuration for a run
type Config struct {
	HivePath         string
	Roots            []string
	ProgressInterval int
	OutputFormat     string
	OutputPath       string
	DenyListFile     string
	LogLevel         string
	NoProgress       bool

	// Upload of the custody report, skipped when ServerURL is empty
	ServerURL  string
	AgentToken string
	CaseID     string
}

// Load loads the configuration from environment variables or defaults
func Load() *Config {
	roots := amcache.DefaultRoots
	if v := getEnv("AMCACHE_ROOTS", ""); v != "" {
		roots = splitList(v)
	}
	return &Config{
		HivePath:         getEnv("AMCACHE_HIVE", DefaultHivePath),
		Roots:            append([]string(nil), roots...),
		ProgressInterval: getEnvInt("AMCACHE_PROGRESS_INTERVAL", amcache.DefaultProgressInterval),
		OutputFormat:     getEnv("AMCACHE_FORMAT", string(export.FormatCSV)),
		OutputPath:       getEnv("AMCACHE_OUTPUT", ""),
		DenyListFile:     getEnv("AMCACHE_DENYLIST", ""),
		LogLevel:         getEnv("AMCACHE_LOG_LEVEL", "info"),
		ServerURL:        getEnv("AMCACHE_SERVER_URL", ""),
		AgentToken:       getEnv("AMCACHE_AGENT_TOKEN", ""),
		CaseID:           getEnv("AMCACHE_CASE_ID", ""),
	}
}

// BindFlags registers one flag per setting on fs, defaulting to the current values.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.HivePath, "hive", c.HivePath, "path to the Amcache.hve file")
	fs.StringSliceVar(&c.Roots, "roots", c.Roots, "record roots to enumerate, in order")
	fs.IntVar(&c.ProgressInterval, "progress-interval", c.ProgressInterval, "retained entries between progress updates")
	fs.StringVarP(&c.OutputFormat, "format", "f", c.OutputFormat, "export format (csv|jsonl|sqlite|table)")
	fs.StringVarP(&c.OutputPath, "output", "o", c.OutputPath, "export file, stdout when empty")
	fs.StringVar(&c.DenyListFile, "denylist", c.DenyListFile, "YAML file replacing the suspicious-path deny-list")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug|info|warn|error)")
	fs.BoolVar(&c.NoProgress, "no-progress", c.NoProgress, "disable the progress bar")
	fs.StringVar(&c.ServerURL, "server-url", c.ServerURL, "collection server receiving the report")
	fs.StringVar(&c.AgentToken, "agent-token", c.AgentToken, "bearer token for the collection server")
	fs.StringVar(&c.CaseID, "case-id", c.CaseID, "case identifier recorded in the custody report")
}

// LoadFromFlags loads the environment configuration and applies args on top.
func LoadFromFlags(args []string) (*Config, error) {
	cfg := Load()
	fs := pflag.NewFlagSet("amcache", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values flags and the environment cannot constrain.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HivePath) == "" {
		return fmt.Errorf("%w: hive path is empty", ErrInvalidConfig)
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("%w: no record roots", ErrInvalidConfig)
	}
	if c.ProgressInterval < 1 {
		return fmt.Errorf("%w: progress interval must be positive, got %d", ErrInvalidConfig, c.ProgressInterval)
	}
	format, err := export.ParseFormat(c.OutputFormat)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if format == export.FormatSQLite && c.OutputPath == "" {
		return fmt.Errorf("%w: sqlite export needs --output", ErrInvalidConfig)
	}
	return nil
}

// Format returns the validated export format.
func (c *Config) Format() export.Format {
	f, err := export.ParseFormat(c.OutputFormat)
	if err != nil {
		return export.FormatCSV
	}
	return f
}

// LoadDenyList reads a deny-list from YAML:
//
//	note: suspicious path
//	fragments:
//	  - \temp\
//	  - \downloads\
//
// An empty path returns the built-in list.
func LoadDenyList(path string) (amcache.DenyList, error) {
	if path == "" {
		return amcache.DefaultDenyList, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return amcache.DenyList{}, fmt.Errorf("failed to read deny-list: %w", err)
	}

	var list amcache.DenyList
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&list); err != nil {
		return amcache.DenyList{}, fmt.Errorf("failed to parse deny-list: %w", err)
	}
	if len(list.Fragments) == 0 {
		return amcache.DenyList{}, fmt.Errorf("%w: deny-list %s has no fragments", ErrInvalidConfig, path)
	}
	return list, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
