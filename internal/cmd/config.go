package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"setbridge/internal/config"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage setbridge configuration settings.

Configuration is stored as flat key-value pairs in config.yaml in the
setbridge home. Known keys:

  engine.concurrency  groups processed at once (default 4)
  log.file            log file, relative to the home directory
  log.level           debug, info, warn or error
  snapshot.dir        snapshot directory (default: the home directory)
  solution.path       solution used when none is given
  syssettings.wait    how long to wait for a system setting to enable
  folder.<Name>       adds a named folder for ${folder:Name}

Subcommands:
  get       Get a configuration value
  set       Set a configuration value
  list      List all configuration values
  unset     Remove a configuration value
  validate  Validate configuration`,
	}

	cmd.AddCommand(newConfigGetCmd(provider))
	cmd.AddCommand(newConfigSetCmd(provider))
	cmd.AddCommand(newConfigListCmd(provider))
	cmd.AddCommand(newConfigUnsetCmd(provider))
	cmd.AddCommand(newConfigValidateCmd(provider))

	return cmd
}

// newConfigGetCmd creates the "config get" subcommand.
func newConfigGetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the value of a configuration key.

Prints the bare value if the key is set, or "key (not set)" if missing.
Defaults and environment overrides are included.

Examples:
  setbridge config get log.level
  setbridge config get folder.Projects`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.configApp()
			if err != nil {
				return err
			}

			key := args[0]
			value, ok := app.ConfigStore.Get(key)

			if app.JSON {
				result := map[string]any{
					"key":   key,
					"value": value,
				}
				if !ok {
					result["value"] = nil
				}
				return app.writeJSON(result)
			}

			if ok {
				fmt.Fprintln(app.Out, value)
			} else {
				fmt.Fprintf(app.Out, "%s (not set)\n", key)
			}
			return nil
		},
	}

	return cmd
}

// newConfigSetCmd creates the "config set" subcommand.
func newConfigSetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration key to a value and save it to config.yaml.

The value is validated before it is written.

Examples:
  setbridge config set log.level debug
  setbridge config set solution.path editor
  setbridge config set folder.Projects ~/src`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.configApp()
			if err != nil {
				return err
			}

			key, value := args[0], args[1]
			if err := config.ValidateValue(key, value); err != nil {
				return err
			}
			if err := app.ConfigStore.Set(key, value); err != nil {
				return fmt.Errorf("setting config: %w", err)
			}

			if app.JSON {
				return app.writeJSON(map[string]string{
					"key":   key,
					"value": value,
				})
			}

			fmt.Fprintf(app.Out, "Set %s = %s\n", key, value)
			return nil
		},
	}

	return cmd
}

// newConfigListCmd creates the "config list" subcommand.
func newConfigListCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration key-value pairs, including defaults.

Entries are sorted alphabetically by key.

Examples:
  setbridge config list
  setbridge config list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.configApp()
			if err != nil {
				return err
			}

			all := app.ConfigStore.All()
			if app.JSON {
				return app.writeJSON(all)
			}

			if len(all) == 0 {
				fmt.Fprintln(app.Out, "No configuration set")
				return nil
			}

			fmt.Fprintln(app.Out, "Configuration:")
			for _, k := range sortedKeys(all) {
				fmt.Fprintf(app.Out, "  %s = %s\n", k, all[k])
			}
			return nil
		},
	}

	return cmd
}

// newConfigUnsetCmd creates the "config unset" subcommand.
func newConfigUnsetCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value",
		Long: `Remove a configuration key from config.yaml.

The key is removed from the store regardless of whether it was set.

Examples:
  setbridge config unset solution.path
  setbridge config unset folder.Projects`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.configApp()
			if err != nil {
				return err
			}

			key := args[0]
			if err := app.ConfigStore.Unset(key); err != nil {
				return fmt.Errorf("unsetting config: %w", err)
			}

			if app.JSON {
				return app.writeJSON(map[string]string{"key": key})
			}

			fmt.Fprintf(app.Out, "Unset %s\n", key)
			return nil
		},
	}

	return cmd
}

// newConfigValidateCmd creates the "config validate" subcommand.
func newConfigValidateCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Check every configuration value and report unknown keys and invalid
values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.configApp()
			if err != nil {
				return err
			}

			verr := config.Validate(app.ConfigStore)
			if app.JSON {
				result := map[string]any{"valid": verr == nil}
				if verr != nil {
					result["error"] = verr.Error()
				}
				if err := app.writeJSON(result); err != nil {
					return err
				}
				return verr
			}

			if verr != nil {
				return verr
			}
			fmt.Fprintf(app.Out, "%s Configuration is valid\n", app.SuccessColor("✓"))
			return nil
		},
	}

	return cmd
}
