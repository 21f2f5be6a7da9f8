// Package logger holds the process-wide structured logger. Until Setup is
// called every record is discarded.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Config selects where records go and how verbose they are.
type Config struct {
	// Path is the log file. Empty discards records.
	Path string

	// Level is debug, info, warn or error. Empty means info.
	Level string

	// Debug forces the debug level and adds source locations.
	Debug bool
}

var (
	mu      sync.RWMutex
	global  = discard()
	logFile *os.File
	logPath string
)

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Setup installs a JSON logger writing to cfg.Path. The returned cleanup
// closes the file and restores the discarding logger.
func Setup(cfg Config) (func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	addSource := false
	if cfg.Debug {
		level = slog.LevelDebug
		addSource = true
	}

	var (
		w io.Writer = io.Discard
		f *os.File
	)
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			setDiscard()
			return nil, err
		}
		f, err = os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			setDiscard()
			return nil, err
		}
		w = f
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})

	mu.Lock()
	global = slog.New(h)
	logFile = f
	logPath = cfg.Path
	mu.Unlock()

	L().Debug("logger.initialized", "path", cfg.Path, "level", level.String())

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()
		var cerr error
		if logFile != nil {
			cerr = logFile.Close()
		}
		logFile = nil
		logPath = ""
		global = discard()
		return cerr
	}
	return cleanup, nil
}

// L returns the current logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Or returns l, or the current logger when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return L()
}

// Path returns the active log file, or "" when records are discarded.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func setDiscard() {
	mu.Lock()
	defer mu.Unlock()
	global = discard()
	logFile = nil
	logPath = ""
}
