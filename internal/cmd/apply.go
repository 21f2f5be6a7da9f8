package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"setbridge/internal/settings"
)

type applyResult struct {
	Solution string          `json:"solution"`
	Snapshot string          `json:"snapshot,omitempty"`
	Groups   map[string]bool `json:"groups"`
	Unknown  []string        `json:"unknown,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
}

func newApplyCmd(provider *AppProvider) *cobra.Command {
	var (
		unset  []string
		snapID string
	)

	cmd := &cobra.Command{
		Use:   "apply [solution] [group.setting=value...]",
		Short: "Write settings to their backends",
		Long: `Write values to the settings of a solution.

Values are given as group.setting=value and converted to the setting's
kind. --unset removes a setting from its backend where the backend
supports it. --snapshot applies the values of a saved snapshot; explicit
assignments are applied on top of it. When --snapshot is given the
solution defaults to the one the snapshot was captured from.

Groups that share a file or registry key are written one at a time.

Examples:
  setbridge apply editor view.window.width=1024
  setbridge apply editor --unset view.window.title
  setbridge apply --snapshot 3f2a`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var solArg string
			if len(args) > 0 && !strings.Contains(args[0], "=") {
				solArg, args = args[0], args[1:]
			}

			result := applyResult{}
			values := settings.NewValues()
			var sol *settings.Solution

			if snapID != "" {
				snap, err := app.Snapshots.Load(ctx, snapID)
				if err != nil {
					return err
				}
				if solArg == "" {
					solArg = snap.Solution
				}
				if sol, err = app.LoadSolution(solArg); err != nil {
					return err
				}
				if sol.Name != snap.Solution {
					fmt.Fprintf(app.Err, "%s snapshot %s was captured from %s, applying to %s\n",
						app.WarnColor("!"), snap.ID, snap.Solution, sol.Name)
				}
				var restored *settings.Values
				restored, result.Unknown = snap.Values(sol)
				values.Merge(restored)
				result.Snapshot = snap.ID
			} else if sol, err = app.LoadSolution(solArg); err != nil {
				return err
			}
			result.Solution = sol.Name

			for _, arg := range args {
				ref, raw, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("invalid assignment %q: want group.setting=value", arg)
				}
				st, err := sol.Lookup(ref)
				if err != nil {
					return err
				}
				v, err := settings.Convert(st.Kind, raw)
				if err != nil {
					return fmt.Errorf("%s: %w", st.ID(), err)
				}
				values.Put(st, v)
			}
			for _, ref := range unset {
				st, err := sol.Lookup(ref)
				if err != nil {
					return err
				}
				values.Put(st, nil)
			}

			if values.Len() == 0 {
				return fmt.Errorf("nothing to apply")
			}

			oks, errs := app.Engine.ApplySolution(ctx, sol, values)
			result.Groups = oks
			result.Errors = errorStrings(errs)

			if app.JSON {
				if err := app.writeJSON(result); err != nil {
					return err
				}
			} else {
				for _, u := range result.Unknown {
					fmt.Fprintf(app.Err, "%s %s is not declared by %s, skipped\n", app.WarnColor("!"), u, sol.Name)
				}
				failedGroups := make(map[string]bool)
				for _, err := range errs {
					var ge *settings.GroupError
					if errors.As(err, &ge) {
						failedGroups[ge.Group] = true
					}
				}
				for _, g := range sortedKeys(oks) {
					switch {
					case failedGroups[g]:
					case oks[g]:
						fmt.Fprintf(app.Out, "%s %s\n", app.SuccessColor("✓"), g)
					default:
						fmt.Fprintf(app.Out, "%s %s (partial)\n", app.WarnColor("!"), g)
					}
				}
				app.printErrors(errs)
			}

			if len(errs) > 0 {
				return failed("apply", len(errs))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&unset, "unset", nil, "Remove a setting (group.setting), repeatable")
	cmd.Flags().StringVar(&snapID, "snapshot", "", "Apply the values of a saved snapshot (id or unique prefix)")

	return cmd
}
