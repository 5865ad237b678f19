package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/planr/internal/planner"
	"github.com/sadopc/planr/internal/timer"
	"github.com/sadopc/planr/internal/timerd"
	"github.com/sadopc/planr/internal/tui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns the terminal, so logs go to a file.
	logFile, err := openLogFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(newLogger(cfg.Log, logFile))

	p, s, err := openPlanner(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctl, err := timerController(ctx, p, cfg.Timer.Socket, time.Duration(cfg.Timer.TickInterval))
	if err != nil {
		return err
	}

	app := tui.NewApp(p, ctl)
	prog := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// timerController prefers a running timer daemon so the timer survives the
// TUI exiting. Without one the TUI owns the timer itself until ctx ends.
func timerController(ctx context.Context, p *planner.Planner, socket string, tick time.Duration) (timer.Controller, error) {
	client := timerd.NewClient(socket)
	pingCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(pingCtx); err == nil {
		slog.Info("using timer daemon", "socket", socket)
		return client, nil
	}

	owner, err := timer.NewOwner(p, timer.WithTickInterval(tick))
	if err != nil {
		return nil, err
	}
	go func() {
		if err := owner.Run(ctx); err != nil {
			slog.Error("timer owner stopped", "error", err)
		}
	}()
	slog.Info("no timer daemon, running timer in process", "socket", socket)
	return owner, nil
}
