package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"setbridge/internal/ini"
)

// newIniCmd creates the ini command with subcommands.
func newIniCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ini",
		Short: "Read and edit INI files directly",
		Long: `Read and edit INI files with the same engine solutions use.

Keys are dotted: "[window]" then "width=800" is window.width. Edits keep
comments, blank lines and unchanged entries exactly as they were.

File arguments may contain ${resolver:name} expressions.

Subcommands:
  get    Print values
  set    Set values
  unset  Remove keys
  keys   List keys in file order`,
	}

	cmd.AddCommand(newIniGetCmd(provider))
	cmd.AddCommand(newIniSetCmd(provider))
	cmd.AddCommand(newIniUnsetCmd(provider))
	cmd.AddCommand(newIniKeysCmd(provider))

	return cmd
}

// iniPath resolves expressions in a file argument.
func iniPath(app *App, arg string) (string, error) {
	path, err := app.Engine.Resolver().Resolve(arg)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", arg, err)
	}
	return path, nil
}

func newIniGetCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> [key...]",
		Short: "Print values",
		Long: `Print the value of each key, or every key=value pair when no key is
given. Missing keys print "key (not set)".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			path, err := iniPath(app, args[0])
			if err != nil {
				return err
			}
			f, err := ini.ReadFile(path)
			if err != nil {
				return err
			}

			keys := args[1:]
			if len(keys) == 0 {
				keys = f.Keys()
			}

			if app.JSON {
				out := make(map[string]any, len(keys))
				for _, k := range keys {
					if v, ok := f.Get(k); ok {
						out[k] = v
					} else {
						out[k] = nil
					}
				}
				return app.writeJSON(out)
			}

			single := len(args) == 2
			for _, k := range keys {
				v, ok := f.Get(k)
				switch {
				case !ok:
					fmt.Fprintf(app.Out, "%s (not set)\n", k)
				case single:
					fmt.Fprintln(app.Out, v)
				default:
					fmt.Fprintf(app.Out, "%s=%s\n", k, strings.ReplaceAll(v, "\n", `\n`))
				}
			}
			return nil
		},
	}
}

func newIniSetCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "set <file> <key=value>...",
		Short: "Set values",
		Long: `Set keys to values. Sections are created as needed. A value containing
"\n" is written as an indented multi-line value.

Examples:
  setbridge ini set ~/.editorrc window.width=1024
  setbridge ini set '${folder:Config}/app.ini' theme=dark`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			path, err := iniPath(app, args[0])
			if err != nil {
				return err
			}

			updates := make(map[string]string, len(args)-1)
			for _, arg := range args[1:] {
				k, v, ok := strings.Cut(arg, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return fmt.Errorf("invalid assignment %q: want key=value", arg)
				}
				updates[strings.TrimSpace(k)] = strings.ReplaceAll(v, `\n`, "\n")
			}

			err = ini.UpdateFile(path, func(values map[string]string) error {
				for k, v := range updates {
					values[k] = v
				}
				return nil
			})
			if err != nil {
				return err
			}

			if app.JSON {
				return app.writeJSON(updates)
			}
			for _, k := range sortedKeys(updates) {
				fmt.Fprintf(app.Out, "Set %s\n", k)
			}
			return nil
		},
	}
}

func newIniUnsetCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <file> <key>...",
		Short: "Remove keys",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			path, err := iniPath(app, args[0])
			if err != nil {
				return err
			}

			var removed []string
			err = ini.UpdateFile(path, func(values map[string]string) error {
				for _, k := range args[1:] {
					if _, ok := values[k]; ok {
						delete(values, k)
						removed = append(removed, k)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			if app.JSON {
				if removed == nil {
					removed = []string{}
				}
				return app.writeJSON(map[string][]string{"removed": removed})
			}
			for _, k := range removed {
				fmt.Fprintf(app.Out, "Unset %s\n", k)
			}
			if len(removed) == 0 {
				fmt.Fprintln(app.Out, "Nothing to unset")
			}
			return nil
		},
	}
}

func newIniKeysCmd(provider *AppProvider) *cobra.Command {
	var sections bool

	cmd := &cobra.Command{
		Use:   "keys <file>",
		Short: "List keys in file order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			path, err := iniPath(app, args[0])
			if err != nil {
				return err
			}
			f, err := ini.ReadFile(path)
			if err != nil {
				return err
			}

			names := f.Keys()
			if sections {
				names = f.Sections()
			}
			if app.JSON {
				if names == nil {
					names = []string{}
				}
				return app.writeJSON(names)
			}
			for _, n := range names {
				fmt.Fprintln(app.Out, n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sections, "sections", false, "List section paths instead of keys")

	return cmd
}
