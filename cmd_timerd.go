package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/planr/internal/timer"
	"github.com/sadopc/planr/internal/timerd"
)

var timerdCmd = &cobra.Command{
	Use:   "timerd",
	Short: "Run the timer daemon",
	Long:  "Own the focus timer in a long-lived process so it keeps running while no TUI is open. Clients connect over a unix socket.",
	Args:  cobra.NoArgs,
	RunE:  runTimerd,
}

func runTimerd(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, p, s, err := setupCLI(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("store close error", "error", err)
		}
	}()

	owner, err := timer.NewOwner(p, timer.WithTickInterval(time.Duration(cfg.Timer.TickInterval)))
	if err != nil {
		return err
	}

	ln, err := timerd.Listen(cfg.Timer.Socket)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	startWorker(ctx, &wg, "timer", func(ctx context.Context) {
		if err := owner.Run(ctx); err != nil {
			slog.Error("timer owner error", "error", err)
		}
	})

	router := timerd.NewRouter(timerd.NewHandler(owner, Version))
	err = timerd.Serve(ctx, ln, router)
	cancel()
	wg.Wait()
	slog.Info("shutdown complete")
	return err
}

// startWorker launches a background goroutine tracked by wg that stops when
// ctx is done.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
