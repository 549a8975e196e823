// Package utils provides logging and identifier helpers shared by the amcache packages
//
//nolint:revive // utils is a common pattern for internal utilities
package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Logger defines the interface for logging operations
type Logger interface {
	LogInfo(message string, meta map[string]string)
	LogWarn(message string, meta map[string]string)
	LogError(message string, meta map[string]string)
	LogDebug(message string, meta map[string]string)
}

// RFC5424Logger implements Logger with RFC 5424 syslog lines using crewjam/rfc5424
type RFC5424Logger struct {
	appName   string
	hostname  string
	processID string
	facility  rfc5424.Priority

	mu          sync.Mutex
	out         io.Writer
	minSeverity rfc5424.Priority
	logs        []string // captured lines, included in the custody record
}

// NewRFC5424Logger creates a logger writing to stderr at info level.
func NewRFC5424Logger(appName string) *RFC5424Logger {
	return &RFC5424Logger{
		appName:     appName,
		hostname:    getHostname(),
		processID:   strconv.Itoa(os.Getpid()),
		facility:    rfc5424.User,
		out:         os.Stderr,
		minSeverity: rfc5424.Info,
		logs:        make([]string, 0),
	}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return hostname
}

// SetOutput redirects log lines. A nil writer discards them; capture continues.
func (l *RFC5424Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	l.out = w
}

// SetLevel sets the least severe level written: debug, info, warn or error.
func (l *RFC5424Logger) SetLevel(level string) error {
	severity, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.minSeverity = severity
	l.mu.Unlock()
	return nil
}

// ParseLevel maps a level name to its syslog severity.
func ParseLevel(level string) (rfc5424.Priority, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return rfc5424.Debug, nil
	case "", "info":
		return rfc5424.Info, nil
	case "warn", "warning":
		return rfc5424.Warning, nil
	case "error":
		return rfc5424.Error, nil
	default:
		return rfc5424.Info, fmt.Errorf("unknown log level %q", level)
	}
}

func (l *RFC5424Logger) createMessage(severity rfc5424.Priority, message string, meta map[string]string) *rfc5424.Message {
	msg := &rfc5424.Message{
		Priority:  l.facility | severity,
		Timestamp: time.Now().UTC(),
		Hostname:  l.hostname,
		AppName:   l.appName,
		ProcessID: l.processID,
		MessageID: fmt.Sprintf("ID%d", time.Now().UnixNano()%100000),
		Message:   []byte(message),
	}

	// Sorted so identical calls produce identical lines
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		msg.AddDatum("meta@1", k, meta[k])
	}

	return msg
}

func (l *RFC5424Logger) writeLog(severity rfc5424.Priority, message string, meta map[string]string) {
	msg := l.createMessage(severity, message, meta)

	// MarshalBinary yields the bare syslog line; WriteTo adds octet-count framing.
	var line string
	if b, err := msg.MarshalBinary(); err == nil {
		line = string(b)
	} else {
		line = fmt.Sprintf("<%d>1 %s %s %s %s - - %s",
			int(l.facility|severity),
			msg.Timestamp.Format(time.RFC3339),
			l.hostname, l.appName, l.processID, message)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, line)
	if severity > l.minSeverity {
		return
	}
	_, _ = io.WriteString(l.out, line+"\n")
}

// LogInfo logs an informational message (severity Info)
func (l *RFC5424Logger) LogInfo(message string, meta map[string]string) {
	l.writeLog(rfc5424.Info, message, meta)
}

// LogWarn logs a warning message (severity Warning)
func (l *RFC5424Logger) LogWarn(message string, meta map[string]string) {
	l.writeLog(rfc5424.Warning, message, meta)
}

// LogError logs an error message (severity Error)
func (l *RFC5424Logger) LogError(message string, meta map[string]string) {
	l.writeLog(rfc5424.Error, message, meta)
}

// LogDebug logs a debug message (severity Debug)
func (l *RFC5424Logger) LogDebug(message string, meta map[string]string) {
	l.writeLog(rfc5424.Debug, message, meta)
}

// GetLogs returns a copy of all captured logs
func (l *RFC5424Logger) GetLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	logsCopy := make([]string, len(l.logs))
	copy(logsCopy, l.logs)
	return logsCopy
}

// ClearLogs clears the in-memory log buffer
func (l *RFC5424Logger) ClearLogs() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = make([]string, 0)
}

// DefaultLogger is the global logger instance
var DefaultLogger = NewRFC5424Logger("amcache")

// InitDefaultLogger replaces the global logger with a fresh one at the given level.
func InitDefaultLogger(level string) error {
	logger := NewRFC5424Logger("amcache")
	if err := logger.SetLevel(level); err != nil {
		return err
	}
	DefaultLogger = logger
	return nil
}

// Convenience functions using the global logger

// LogInfo logs an informational message using the default logger
func LogInfo(message string, meta map[string]string) {
	if DefaultLogger != nil {
		DefaultLogger.LogInfo(message, meta)
	}
}

// LogWarn logs a warning message using the default logger
func LogWarn(message string, meta map[string]string) {
	if DefaultLogger != nil {
		DefaultLogger.LogWarn(message, meta)
	}
}

// LogError logs an error message using the default logger
func LogError(message string, meta map[string]string) {
	if DefaultLogger != nil {
		DefaultLogger.LogError(message, meta)
	}
}

// LogDebug logs a debug message using the default logger
func LogDebug(message string, meta map[string]string) {
	if DefaultLogger != nil {
		DefaultLogger.LogDebug(message, meta)
	}
}

// GetLogs returns logs from the default logger
func GetLogs() []string {
	if DefaultLogger != nil {
		return DefaultLogger.GetLogs()
	}
	return []string{}
}

// ClearLogs clears logs from the default logger
func ClearLogs() {
	if DefaultLogger != nil {
		DefaultLogger.ClearLogs()
	}
}
