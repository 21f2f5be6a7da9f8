package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"setbridge/internal/logger"
	"setbridge/internal/settings"
	"setbridge/internal/snapshot"
	"setbridge/internal/watch"
)

type watchEvent struct {
	Time   time.Time        `json:"time"`
	Groups []string         `json:"groups"`
	Values []snapshot.Entry `json:"values"`
	Errors []string         `json:"errors,omitempty"`
}

func newWatchCmd(provider *AppProvider) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [solution] [group...]",
		Short: "Capture groups again whenever their files change",
		Long: `Watch the files of the file-backed groups (INI, XML and JSON) of a
solution and print the captured values of a group each time its file
changes. Other groups are skipped with a warning.

With --json each change is printed as one JSON object per line.

Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			var solArg string
			var names []string
			if len(args) > 0 {
				solArg, names = args[0], args[1:]
			}
			sol, err := app.LoadSolution(solArg)
			if err != nil {
				return err
			}

			groups := sol.Groups
			if len(names) > 0 {
				groups = nil
				for _, n := range names {
					g := sol.Group(n)
					if g == nil {
						return fmt.Errorf("group %s: %w", n, settings.ErrNotFound)
					}
					groups = append(groups, g)
				}
			}

			w, err := watch.New(watch.WithDebounce(debounce), watch.WithLogger(logger.L()))
			if err != nil {
				return err
			}
			defer w.Close()

			reg := app.Engine.Resolver()
			watched := 0
			for _, g := range groups {
				if err := w.AddGroup(g, reg); err != nil {
					if errors.Is(err, watch.ErrNotFileBacked) {
						fmt.Fprintf(app.Err, "%s %s is not file backed, skipped\n", app.WarnColor("!"), g.Name)
						continue
					}
					return fmt.Errorf("watching group %s: %w", g.Name, err)
				}
				watched++
			}
			if watched == 0 {
				return fmt.Errorf("no file-backed groups to watch in %s", sol.Name)
			}
			if !app.JSON {
				fmt.Fprintf(app.Out, "Watching %d files of %s\n", len(w.Files()), sol.Name)
			}

			err = w.Run(cmd.Context(), func(changed []string) {
				values, errs := app.Engine.CaptureSolution(cmd.Context(), sol, changed...)
				ev := watchEvent{
					Time:   time.Now(),
					Groups: changed,
					Values: snapshot.EntriesOf(values),
					Errors: errorStrings(errs),
				}
				if app.JSON {
					if err := app.writeLine(ev); err != nil {
						logger.L().Warn("watch.output.failed", "error", err)
					}
					return
				}
				fmt.Fprintf(app.Out, "%s changed: %v\n", ev.Time.Format("15:04:05"), changed)
				app.printEntries(ev.Values)
				app.printErrors(errs)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Wait this long after a change before capturing")

	return cmd
}
