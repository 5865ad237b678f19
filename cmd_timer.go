package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/timer"
)

var (
	timerTitle  string
	logTaskID   string
	controlWait = 5 * time.Second
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the focus timer",
	Long:  "Control the focus timer through the timer daemon when one is running, or directly against the database otherwise.",
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer state",
	Args:  cobra.NoArgs,
	RunE: withTimer(func(ctx context.Context, ctl timer.Controller, args []string) (any, error) {
		return ctl.State(ctx)
	}),
}

var timerStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start the timer on a task, or resume a paused one",
	Args:  cobra.MaximumNArgs(1),
	RunE: withTimer(func(ctx context.Context, ctl timer.Controller, args []string) (any, error) {
		id := ""
		if len(args) == 1 {
			id = args[0]
		}
		return ctl.Start(ctx, id, timerTitle)
	}),
}

var timerPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running timer",
	Args:  cobra.NoArgs,
	RunE: withTimer(func(ctx context.Context, ctl timer.Controller, args []string) (any, error) {
		return ctl.Stop(ctx)
	}),
}

var timerResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the current timer without logging a session",
	Args:  cobra.NoArgs,
	RunE: withTimer(func(ctx context.Context, ctl timer.Controller, args []string) (any, error) {
		return ctl.Reset(ctx)
	}),
}

var timerFinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Log the elapsed time as a session and stop the timer",
	Args:  cobra.NoArgs,
	RunE: withTimer(func(ctx context.Context, ctl timer.Controller, args []string) (any, error) {
		return ctl.Finish(ctx)
	}),
}

var timerLogCmd = &cobra.Command{
	Use:   "log <title> <duration>",
	Short: "Log a session of the given length ending now, e.g. planr timer log Reading 45m",
	Args:  cobra.ExactArgs(2),
	RunE: withTimer(func(ctx context.Context, ctl timer.Controller, args []string) (any, error) {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", args[1], err)
		}
		return ctl.SaveSession(ctx, logTaskID, args[0], d)
	}),
}

func init() {
	timerStartCmd.Flags().StringVar(&timerTitle, "title", "",
		"Task title recorded with the session")
	timerLogCmd.Flags().StringVar(&logTaskID, "task", "",
		"Task id the session belongs to")

	timerCmd.AddCommand(timerStatusCmd, timerStartCmd, timerPauseCmd,
		timerResetCmd, timerFinishCmd, timerLogCmd)
	rootCmd.AddCommand(timerCmd)
}

// withTimer wraps a timer operation into a command: it opens the planner,
// picks a controller and prints the result.
func withTimer(fn func(ctx context.Context, ctl timer.Controller, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, p, s, err := setupCLI(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), controlWait)
		defer cancel()

		ctl, err := timerController(ctx, p, cfg.Timer.Socket, time.Duration(cfg.Timer.TickInterval))
		if err != nil {
			return err
		}
		result, err := fn(ctx, ctl, args)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result)
		}
		printTimerResult(cmd.OutOrStdout(), result)
		return nil
	}
}

func printTimerResult(out io.Writer, result any) {
	switch r := result.(type) {
	case timer.State:
		if !r.Active() {
			fmt.Fprintln(out, "Timer idle")
			return
		}
		fmt.Fprintf(out, "%s  %s  %s\n", r.Status, formatClock(r.Elapsed()), sessionLabel(r.TaskTitle))
	case planner.Session:
		fmt.Fprintf(out, "Logged %s on %s (%s)\n", formatClock(r.Duration()), sessionLabel(r.TaskTitle), r.Date)
	}
}

func sessionLabel(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}
