package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/spf13/cobra"

	"setbridge/internal/config"
	"setbridge/internal/config/yamlstore"
	"setbridge/internal/logger"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once    sync.Once
	app     *App
	err     error
	cleanup func() error

	// Config captured from flags before Execute()
	Home       string
	JSONOutput bool
	Debug      bool
	LogFile    string
	Out        io.Writer
	Err        io.Writer
}

// Get returns the App, initializing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		if p.app == nil {
			p.app, p.err = p.init()
		}
	})
	if p.app != nil {
		p.app.JSON = p.app.JSON || p.JSONOutput
	}
	return p.app, p.err
}

// NewTestProvider creates a provider pre-initialized with the given App.
// Used for testing commands with a test App.
func NewTestProvider(app *App) *AppProvider {
	return &AppProvider{
		app: app,
		Out: app.Out,
		Err: app.Err,
	}
}

func (p *AppProvider) init() (*App, error) {
	paths, err := config.ResolvePaths(p.Home)
	if err != nil {
		return nil, err
	}
	store, err := yamlstore.New(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	config.ApplyDefaults(store)
	config.ApplyEnvOverrides(store)
	if v := os.Getenv(config.EnvJSON); v == "1" || v == "true" {
		p.JSONOutput = true
	}

	cfg, err := config.Load(store, paths.Home)
	if err != nil {
		return nil, err
	}
	logPath := cfg.LogFile
	if p.LogFile != "" {
		logPath = p.LogFile
	}
	p.cleanup, err = logger.Setup(logger.Config{
		Path:  logPath,
		Level: cfg.LogLevel.String(),
		Debug: p.Debug,
	})
	if err != nil {
		return nil, err
	}

	return NewApp(paths, store, p.out(), p.errOut())
}

// configApp returns the App, or when the configuration is too broken to
// build one, an App holding only the config store so the config commands
// can still inspect and repair it.
func (p *AppProvider) configApp() (*App, error) {
	app, err := p.Get()
	if err == nil {
		return app, nil
	}
	paths, perr := config.ResolvePaths(p.Home)
	if perr != nil {
		return nil, err
	}
	store, serr := yamlstore.New(paths.ConfigFile)
	if serr != nil {
		return nil, err
	}
	config.ApplyDefaults(store)
	config.ApplyEnvOverrides(store)
	return &App{
		Paths:       paths,
		ConfigStore: store,
		Out:         p.out(),
		Err:         p.errOut(),
		JSON:        p.JSONOutput,
	}, nil
}

func (p *AppProvider) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

func (p *AppProvider) errOut() io.Writer {
	if p.Err == nil {
		return os.Stderr
	}
	return p.Err
}

// Close releases resources opened by Get.
func (p *AppProvider) Close() error {
	if p.cleanup != nil {
		return p.cleanup()
	}
	return nil
}

// Execute runs the CLI. An interrupt cancels the running command.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
	}
	defer provider.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd(provider).ExecuteContext(ctx)
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "setbridge",
		Short: "Capture and apply application settings",
		Long: `setbridge reads and writes application settings declared in solution
files. Each solution groups settings by where they are stored: INI, XML or
JSON files, registry keys, WMI objects, system settings or system calls.

Captured values can be saved as snapshots and applied again later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags - these populate the provider config
	rootCmd.PersistentFlags().BoolVar(&provider.JSONOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&provider.Home, "home", "", "setbridge home directory (default: $SETBRIDGE_HOME or user config dir)")
	rootCmd.PersistentFlags().BoolVar(&provider.Debug, "debug", false, "Log at debug level with source locations")
	rootCmd.PersistentFlags().StringVar(&provider.LogFile, "log-file", "", "Write logs to this file (overrides log.file)")

	rootCmd.AddCommand(newCaptureCmd(provider))
	rootCmd.AddCommand(newApplyCmd(provider))
	rootCmd.AddCommand(newResolveCmd(provider))
	rootCmd.AddCommand(newIniCmd(provider))
	rootCmd.AddCommand(newSnapshotCmd(provider))
	rootCmd.AddCommand(newSolutionsCmd(provider))
	rootCmd.AddCommand(newConfigCmd(provider))
	rootCmd.AddCommand(newWatchCmd(provider))
	rootCmd.AddCommand(newVersionCmd(provider))

	return rootCmd
}
