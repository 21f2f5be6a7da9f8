// Package config handles setbridge tool configuration: where the home
// directory is, the flat key store kept there, defaults, environment
// overrides and validation.
package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"setbridge/internal/logger"
)

// Config is the typed view of a Store.
type Config struct {
	SolutionPath    string
	SnapshotDir     string
	LogFile         string
	LogLevel        slog.Level
	Folders         map[string]string
	SysSettingsWait time.Duration
	Concurrency     int
}

// Load reads the typed configuration from s. Relative paths are taken
// relative to home. Invalid values are reported rather than defaulted.
func Load(s Store, home string) (Config, error) {
	if err := Validate(s); err != nil {
		return Config{}, err
	}
	all := s.All()
	cfg := Config{
		SolutionPath: all["solution.path"],
		SnapshotDir:  underHome(home, all["snapshot.dir"]),
		LogFile:      underHome(home, all["log.file"]),
		Folders:      make(map[string]string),
		Concurrency:  1,
	}

	var err error
	if level, ok := all["log.level"]; ok {
		if cfg.LogLevel, err = logger.ParseLevel(level); err != nil {
			return Config{}, fmt.Errorf("log.level: %w", err)
		}
	}
	if wait, ok := all["syssettings.wait"]; ok {
		if cfg.SysSettingsWait, err = time.ParseDuration(wait); err != nil {
			return Config{}, fmt.Errorf("syssettings.wait: %w", err)
		}
	}
	if n, ok := all["engine.concurrency"]; ok {
		if cfg.Concurrency, err = strconv.Atoi(n); err != nil {
			return Config{}, fmt.Errorf("engine.concurrency: %w", err)
		}
	}
	for k, v := range all {
		if name, ok := strings.CutPrefix(k, FolderPrefix); ok {
			cfg.Folders[name] = v
		}
	}
	return cfg, nil
}

func underHome(home, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(home, path)
}
