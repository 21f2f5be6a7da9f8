package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the config file in the home directory.
const ConfigFileName = "config.yaml"

// Paths captures resolved locations for config.
type Paths struct {
	Home       string // setbridge home directory
	ConfigFile string // <home>/config.yaml
}

// SnapshotRoot returns the directory holding the snapshot table: dir when
// set, otherwise the home directory.
func (p Paths) SnapshotRoot(dir string) string {
	if dir != "" {
		return dir
	}
	return p.Home
}

// ResolvePaths picks the home directory: an explicit home wins, then
// SETBRIDGE_HOME, then "setbridge" under the user config directory.
func ResolvePaths(home string) (Paths, error) {
	if home == "" {
		home = os.Getenv(EnvHome)
	}
	if home == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Paths{}, fmt.Errorf("locating config directory: %w", err)
		}
		home = filepath.Join(base, "setbridge")
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return Paths{}, fmt.Errorf("resolving home %s: %w", home, err)
	}
	return Paths{Home: abs, ConfigFile: filepath.Join(abs, ConfigFileName)}, nil
}
