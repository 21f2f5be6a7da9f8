// Package cmd implements the setbridge command-line interface.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/term"

	"setbridge/internal/config"
	"setbridge/internal/engine"
	kvfs "setbridge/internal/kvstorage/filesystem"
	"setbridge/internal/resolver"
	"setbridge/internal/settings"
	"setbridge/internal/snapshot"
	"setbridge/internal/solution"
)

// App holds application state shared across commands.
type App struct {
	Paths        config.Paths
	ConfigStore  config.Store
	Config       config.Config
	Engine       *engine.Engine
	Snapshots    *snapshot.Store
	SolutionPath solution.SearchPath
	Out          io.Writer
	Err          io.Writer
	JSON         bool // output in JSON format
}

// NewApp wires an App from a loaded config store. Extra engine options are
// applied after the ones derived from the configuration.
func NewApp(paths config.Paths, store config.Store, out, errOut io.Writer, opts ...engine.Option) (*App, error) {
	cfg, err := config.Load(store, paths.Home)
	if err != nil {
		return nil, err
	}

	folders := resolver.NewFolderResolver()
	for name, path := range cfg.Folders {
		folders.AddPath(name, path)
	}
	base := []engine.Option{
		engine.WithConcurrency(cfg.Concurrency),
		engine.WithResolverOptions(resolver.WithFolders(folders)),
		engine.WithSystemSettingsWait(cfg.SysSettingsWait),
	}
	eng := engine.New(append(base, opts...)...)

	kv, err := kvfs.New(paths.SnapshotRoot(cfg.SnapshotDir), snapshot.Table)
	if err != nil {
		return nil, err
	}

	return &App{
		Paths:        paths,
		ConfigStore:  store,
		Config:       cfg,
		Engine:       eng,
		Snapshots:    snapshot.New(kv),
		SolutionPath: solution.DefaultSearchPath(paths.Home),
		Out:          out,
		Err:          errOut,
	}, nil
}

// LoadSolution loads a solution given as a path or as a name on the search
// path. An empty argument falls back to the solution.path config key.
func (a *App) LoadSolution(arg string) (*settings.Solution, error) {
	if arg == "" {
		arg = a.Config.SolutionPath
	}
	if arg == "" {
		return nil, fmt.Errorf("no solution given and solution.path is not set")
	}
	path, err := solution.Resolve(arg, a.SolutionPath)
	if err != nil {
		return nil, err
	}
	return solution.Load(path)
}

// SuccessColor returns the string wrapped in green ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) SuccessColor(s string) string {
	if a.isTerminal() {
		return "\033[32m" + s + "\033[0m"
	}
	return s
}

// WarnColor returns the string wrapped in orange ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) WarnColor(s string) string {
	if a.isTerminal() {
		return "\033[38;5;214m" + s + "\033[0m"
	}
	return s
}

// ErrorColor returns the string wrapped in red ANSI codes if stdout is a terminal,
// otherwise returns the string unchanged.
func (a *App) ErrorColor(s string) string {
	if a.isTerminal() {
		return "\033[31m" + s + "\033[0m"
	}
	return s
}

func (a *App) isTerminal() bool {
	f, ok := a.Out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeJSON encodes v as indented JSON to the app output.
func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeLine encodes v as a single line of JSON.
func (a *App) writeLine(v any) error {
	return json.NewEncoder(a.Out).Encode(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
