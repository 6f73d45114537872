package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/config"
	"github.com/amishk599/jobscout/internal/scheduler"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the saved searches on their schedules",
	Long:  "Runs every configured watch once, then on its cron schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "run every watch once and exit")
	rootCmd.AddCommand(watchCmd)
}

func watchesFromConfig(cfg *config.Config) []scheduler.Watch {
	watches := make([]scheduler.Watch, 0, len(cfg.Watches))
	for _, w := range cfg.Watches {
		watches = append(watches, scheduler.Watch{
			Name:     w.Name,
			Term:     w.Term,
			Source:   w.Source,
			User:     w.User,
			Schedule: w.Schedule,
		})
	}
	return watches
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setupApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if len(a.cfg.Watches) == 0 {
		return fmt.Errorf("no watches configured")
	}

	sched, err := scheduler.NewScheduler(watchesFromConfig(a.cfg), a.pipeline, a.cfg.RateLimit.MinDelay, a.logger)
	if err != nil {
		return err
	}
	if watchOnce {
		sched.RunOnce(ctx)
		a.logger.Info("watch round complete")
		return nil
	}
	if err := sched.Run(ctx); err != nil {
		return err
	}

	a.logger.Info("goodbye")
	return nil
}
