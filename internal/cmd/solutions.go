package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"setbridge/internal/solution"
)

func newSolutionsCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "solutions",
		Short: "List solutions on the search path",
		Long: `List the solution files found in the search path: the "solutions"
directory of the setbridge home, then the current directory. A name found
in both is listed once, from the home directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			entries, err := solution.List(app.SolutionPath)
			if err != nil {
				return err
			}
			if app.JSON {
				if entries == nil {
					entries = []solution.Entry{}
				}
				return app.writeJSON(entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(app.Out, "No solutions found")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(app.Out, "%-20s %2d groups  %s\n", e.Name, e.Groups, e.Path)
			}
			return nil
		},
	}
}
