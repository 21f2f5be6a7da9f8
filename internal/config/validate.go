package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FolderPrefix starts keys that add named folders to the folder resolver,
// e.g. "folder.Projects".
const FolderPrefix = "folder."

// validValues maps known keys to their allowed values.
// An empty slice means any string is accepted.
var validValues = map[string][]string{
	"engine.concurrency": {},
	"log.file":           {},
	"log.level":          {"debug", "info", "warn", "error"},
	"snapshot.dir":       {},
	"solution.path":      {},
	"syssettings.wait":   {},
}

// KnownKey reports whether key is a recognized configuration key.
func KnownKey(key string) bool {
	if _, ok := validValues[key]; ok {
		return true
	}
	return strings.HasPrefix(key, FolderPrefix) && len(key) > len(FolderPrefix)
}

// KnownKeys returns the fixed configuration keys in sorted order.
func KnownKeys() []string {
	keys := make([]string, 0, len(validValues))
	for k := range validValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks all values in s. It returns an error describing every
// invalid value and unknown key found, or nil if all values are valid.
func Validate(s Store) error {
	all := s.All()
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, key := range keys {
		if err := ValidateValue(key, all[key]); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
}

// ValidateValue checks a single key=value pair.
func ValidateValue(key, val string) error {
	if !KnownKey(key) {
		return fmt.Errorf("%s: unknown key", key)
	}
	if strings.HasPrefix(key, FolderPrefix) {
		if val == "" {
			return fmt.Errorf("%s: folder path cannot be empty", key)
		}
		return nil
	}

	if allowed := validValues[key]; len(allowed) > 0 {
		if !contains(allowed, val) {
			return fmt.Errorf("%s: invalid value %q (allowed: %s)", key, val, strings.Join(allowed, ", "))
		}
		return nil
	}

	// Keys with no enumerated values have type-specific checks.
	switch key {
	case "engine.concurrency":
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: must be a positive integer, got %q", key, val)
		}
	case "syssettings.wait":
		d, err := time.ParseDuration(val)
		if err != nil || d < 0 {
			return fmt.Errorf("%s: must be a non-negative duration, got %q", key, val)
		}
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
