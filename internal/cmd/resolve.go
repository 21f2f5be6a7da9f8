package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd(provider *AppProvider) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "resolve <string>...",
		Short: "Expand ${resolver:name} expressions",
		Long: `Expand the expressions in each argument using the same resolvers as
solution files: environment variables, folders and registry values.

Examples:
  setbridge resolve '${env:HOME}/.editorrc'
  setbridge resolve '${folder:Projects?/tmp}'
  setbridge resolve --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			reg := app.Engine.Resolver()

			if list {
				names := reg.Names()
				if app.JSON {
					return app.writeJSON(names)
				}
				for _, n := range names {
					fmt.Fprintln(app.Out, n)
				}
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("nothing to resolve")
			}
			resolved := make(map[string]string, len(args))
			for _, arg := range args {
				v, err := reg.Resolve(arg)
				if err != nil {
					return fmt.Errorf("resolving %q: %w", arg, err)
				}
				resolved[arg] = v
			}

			if app.JSON {
				return app.writeJSON(resolved)
			}
			for _, arg := range args {
				fmt.Fprintln(app.Out, resolved[arg])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the registered resolver names")

	return cmd
}
