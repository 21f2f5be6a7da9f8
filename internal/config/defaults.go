package config

import (
	"strconv"

	"setbridge/internal/engine"
	"setbridge/internal/handler/syssettings"
)

// DefaultValues returns the default config map for the core keys.
func DefaultValues() map[string]string {
	return map[string]string{
		"engine.concurrency": strconv.Itoa(engine.DefaultConcurrency),
		"log.level":          "info",
		"syssettings.wait":   syssettings.DefaultWait.String(),
	}
}

// ApplyDefaults fills any missing core keys in s with their default values.
// Defaults are held in memory only.
func ApplyDefaults(s Store) {
	all := s.All()
	for k, v := range DefaultValues() {
		if _, exists := all[k]; !exists {
			s.SetInMemory(k, v)
		}
	}
}
