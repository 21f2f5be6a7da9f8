package config

import "os"

// Environment variable names for setbridge configuration.
const (
	EnvHome     = "SETBRIDGE_HOME"      // Path to the setbridge home directory
	EnvSolution = "SETBRIDGE_SOLUTION"  // Override solution.path
	EnvLogLevel = "SETBRIDGE_LOG_LEVEL" // Override log.level
	EnvJSON     = "SETBRIDGE_JSON"      // Enable JSON output ("1" or "true")
)

// ApplyEnvOverrides checks SETBRIDGE_SOLUTION and SETBRIDGE_LOG_LEVEL and
// overrides the corresponding config values in memory. These overrides are
// not persisted to the config file.
func ApplyEnvOverrides(s Store) {
	if path := os.Getenv(EnvSolution); path != "" {
		s.SetInMemory("solution.path", path)
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		s.SetInMemory("log.level", level)
	}
}
