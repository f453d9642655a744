package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	kite "github.com/kiteci/kite"
	"github.com/kiteci/kite/internal/dashboard"
	"github.com/kiteci/kite/internal/loader"
	"github.com/kiteci/kite/internal/scheduler"
	"github.com/kiteci/kite/internal/seglog"
)

func newRunCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <ride.yaml>",
		Short: "Run a ride to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			workspace := root.workspace
			if workspace == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve workspace: %w", err)
				}
				workspace = wd
			}

			interactive := !root.nonInteractive && term.IsTerminal(int(os.Stdout.Fd()))

			result, err := runRide(cmd.Context(), doc, runOptions{
				workspace:   workspace,
				verbose:     root.verbose,
				interactive: interactive,
			})
			if err != nil {
				return err
			}

			if !interactive {
				printSummary(cmd.OutOrStdout(), result)
			}
			if result.ExitCode() != 0 {
				return errExitNonZero
			}
			return nil
		},
	}
	return cmd
}

// errExitNonZero signals a failed run without duplicating the summary
// already printed to stdout; main.go reports it on stderr and exits 1.
var errExitNonZero = fmt.Errorf("ride did not complete successfully")

type runOptions struct {
	workspace   string
	verbose     bool
	interactive bool
}

func runRide(ctx context.Context, doc *loader.Document, opts runOptions) (kite.SchedulerResult, error) {
	if !opts.interactive {
		sched := scheduler.New(doc.Segments, scheduler.Options{
			Workspace: opts.workspace,
			Console:   seglog.NewConsole(os.Stdout),
		})
		return sched.Execute(ctx, doc.Ride), nil
	}

	model := dashboard.NewModel(doc.Ride.Name(), flowSegmentNames(doc.Ride))
	service := dashboard.NewService(model)

	resultCh := make(chan kite.SchedulerResult, 1)
	go func() {
		sched := scheduler.New(doc.Segments, scheduler.Options{
			Workspace: opts.workspace,
			Observer:  service,
		})
		result := sched.Execute(ctx, doc.Ride)
		service.Finished(result)
		resultCh <- result
	}()

	if _, err := service.Run(); err != nil {
		return kite.SchedulerResult{}, fmt.Errorf("dashboard: %w", err)
	}
	return <-resultCh, nil
}

func flowSegmentNames(ride kite.Ride) []string {
	var names []string
	seen := make(map[string]bool)
	for _, step := range ride.Flow() {
		for _, name := range step.Segments() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

func printSummary(out io.Writer, result kite.SchedulerResult) {
	names := make([]string, 0, len(result.Results))
	for name := range result.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(out)
	for _, name := range names {
		res := result.Results[name]
		fmt.Fprintf(out, "  %-7s %-24s %s\n", res.Status, name, res.Message)
	}

	s := result.Summary()
	fmt.Fprintf(out, "\nrun %s: success=%d failed=%d skipped=%d timeout=%d wall=%s sequential=%s\n",
		result.RunID, s.Success, s.Failed, s.Skipped, s.Timeout,
		s.WallClock.Truncate(10*time.Millisecond), s.SequentialEquivalent.Truncate(10*time.Millisecond))
}
