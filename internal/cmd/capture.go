package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"setbridge/internal/snapshot"
)

type captureResult struct {
	Solution string           `json:"solution"`
	Values   []snapshot.Entry `json:"values"`
	Errors   []string         `json:"errors,omitempty"`
	Snapshot string           `json:"snapshot,omitempty"`
}

func newCaptureCmd(provider *AppProvider) *cobra.Command {
	var (
		save  bool
		label string
	)

	cmd := &cobra.Command{
		Use:   "capture [solution] [group...]",
		Short: "Read the current settings of a solution",
		Long: `Read settings from their backends and print them.

The solution is a path to a solution file or a name looked up in the
solution search path. When omitted, solution.path from the configuration
is used. Naming groups captures only those groups.

Settings the backend does not hold are reported with their default, or as
not found when there is none. A group that cannot be read at all is
reported as an error; the other groups are still captured.

Examples:
  setbridge capture editor
  setbridge capture editor view keys
  setbridge capture ./editor.solution.toml --save --label "before upgrade"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			var solArg string
			var groups []string
			if len(args) > 0 {
				solArg, groups = args[0], args[1:]
			}
			sol, err := app.LoadSolution(solArg)
			if err != nil {
				return err
			}

			values, errs := app.Engine.CaptureSolution(cmd.Context(), sol, groups...)
			result := captureResult{
				Solution: sol.Name,
				Values:   snapshot.EntriesOf(values),
				Errors:   errorStrings(errs),
			}

			if save {
				snap, err := app.Snapshots.Save(cmd.Context(), sol, values, label)
				if err != nil {
					return err
				}
				result.Snapshot = snap.ID
			}

			if app.JSON {
				if err := app.writeJSON(result); err != nil {
					return err
				}
			} else {
				app.printEntries(result.Values)
				app.printErrors(errs)
				if result.Snapshot != "" {
					fmt.Fprintf(app.Out, "%s Saved snapshot %s\n", app.SuccessColor("✓"), result.Snapshot)
				}
			}

			if len(errs) > 0 {
				return failed("capture", len(errs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the captured values as a snapshot")
	cmd.Flags().StringVar(&label, "label", "", "Label for the saved snapshot")

	return cmd
}
