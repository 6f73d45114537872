package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/api"
	"github.com/amishk599/jobscout/internal/scheduler"
)

var serveWithWatches bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API",
	Long:  "Serve the HTTP search API; blocks until SIGINT/SIGTERM. With --watches the saved searches run alongside.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithWatches, "watches", false, "also run the configured watches on their schedules")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setupApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var wg sync.WaitGroup
	if serveWithWatches && len(a.cfg.Watches) > 0 {
		sched, err := scheduler.NewScheduler(watchesFromConfig(a.cfg), a.pipeline, a.cfg.RateLimit.MinDelay, a.logger)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sched.Run(ctx); err != nil {
				a.logger.Error("scheduler error", "error", err)
			}
		}()
	}

	srv := api.NewServer(a.pipeline, a.store, a.registry, api.Options{AllowedOrigins: a.cfg.Server.AllowedOrigins}, a.logger)
	err = srv.ListenAndServe(ctx, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
	stop()
	wg.Wait()
	if err != nil {
		return err
	}

	a.logger.Info("goodbye")
	return nil
}
