package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"setbridge/internal/settings"
	"setbridge/internal/snapshot"
)

// newSnapshotCmd creates the snapshot command with subcommands.
func newSnapshotCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved captures",
		Long: `Manage snapshots saved with "capture --save".

Snapshots are addressed by id or by any unique prefix of it. Apply one
with "apply --snapshot <id>".

Subcommands:
  list    List snapshots, oldest first
  show    Print the values of a snapshot
  delete  Delete a snapshot`,
	}

	cmd.AddCommand(newSnapshotListCmd(provider))
	cmd.AddCommand(newSnapshotShowCmd(provider))
	cmd.AddCommand(newSnapshotDeleteCmd(provider))

	return cmd
}

type snapshotSummary struct {
	ID        string    `json:"id"`
	Solution  string    `json:"solution"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Values    int       `json:"values"`
	Defaults  int       `json:"defaults"`
	NotFound  int       `json:"not_found"`
}

func summarize(s *snapshot.Snapshot) snapshotSummary {
	counts := s.Summary()
	return snapshotSummary{
		ID:        s.ID,
		Solution:  s.Solution,
		Label:     s.Label,
		CreatedAt: s.CreatedAt,
		Values:    counts[settings.UserSetting],
		Defaults:  counts[settings.Default],
		NotFound:  counts[settings.NotFound],
	}
}

func newSnapshotListCmd(provider *AppProvider) *cobra.Command {
	var solution string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			snaps, err := app.Snapshots.List(cmd.Context(), solution)
			if err != nil {
				return err
			}

			summaries := make([]snapshotSummary, 0, len(snaps))
			for _, s := range snaps {
				summaries = append(summaries, summarize(s))
			}
			if app.JSON {
				return app.writeJSON(summaries)
			}

			if len(summaries) == 0 {
				fmt.Fprintln(app.Out, "No snapshots")
				return nil
			}
			for _, s := range summaries {
				line := fmt.Sprintf("%s  %s  %-16s %d values", s.ID[:8], s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Solution, s.Values)
				if s.Label != "" {
					line += "  " + s.Label
				}
				fmt.Fprintln(app.Out, line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&solution, "solution", "", "Only list snapshots of this solution")

	return cmd
}

func newSnapshotShowCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the values of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			snap, err := app.Snapshots.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return app.writeJSON(snap)
			}

			fmt.Fprintf(app.Out, "Snapshot %s\n", snap.ID)
			fmt.Fprintf(app.Out, "Solution: %s\n", snap.Solution)
			if snap.Label != "" {
				fmt.Fprintf(app.Out, "Label:    %s\n", snap.Label)
			}
			fmt.Fprintf(app.Out, "Created:  %s\n\n", snap.CreatedAt.Local().Format(time.RFC3339))
			app.printEntries(snap.Entries)
			return nil
		},
	}
}

func newSnapshotDeleteCmd(provider *AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			id, err := app.Snapshots.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if app.JSON {
				return app.writeJSON(map[string]string{"deleted": id})
			}
			fmt.Fprintf(app.Out, "%s Deleted snapshot %s\n", app.SuccessColor("✓"), id)
			return nil
		},
	}
}
