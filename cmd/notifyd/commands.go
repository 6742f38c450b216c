package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"matchday/internal/app"
	"matchday/internal/config"
	"matchday/internal/model"
	"matchday/internal/queue"
	transporthttp "matchday/internal/transport/http"
)

// serveCommand runs the HTTP API. With --workers the stream consumers run in
// the same process.
func serveCommand() *cobra.Command {
	var withWorkers bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			router, closeRouter := a.Router()
			defer closeRouter()

			if withWorkers {
				mgr := a.Workers()
				if err := mgr.Start(ctx); err != nil {
					return fmt.Errorf("start workers: %w", err)
				}
				defer mgr.Stop()
			}

			return transporthttp.Serve(ctx, ":"+cfg.ServerPort, router)
		},
	}

	cmd.Flags().BoolVar(&withWorkers, "workers", false, "also consume the notification stream in this process")
	return cmd
}

// workerCommand runs only the stream consumers.
func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume notification events from Redis Streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			mgr := a.Workers()
			if err := mgr.Start(ctx); err != nil {
				return fmt.Errorf("start workers: %w", err)
			}

			<-ctx.Done()
			mgr.Stop()
			return nil
		},
	}
}

// remindCommand sends match reminders. With --match it sends one reminder
// synchronously and prints the result; otherwise it enqueues a reminder for
// every scheduled match kicking off in [now+lead, now+lead+window). Schedule
// it once per window (e.g. from cron) so each match is reminded once.
func remindCommand() *cobra.Command {
	var (
		matchID int64
		lead    time.Duration
		window  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send kick-off reminders for upcoming matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if matchID > 0 {
				result, err := a.Notifications.NotifyMatchEvent(ctx, matchID, model.MatchEventReminder)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			ids, err := a.Notifications.UpcomingReminders(ctx, lead, window)
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(8)
			for _, id := range ids {
				g.Go(func() error {
					_, err := a.Publisher.Publish(gctx, queue.StreamNotifications, queue.NewMatchLifecycleEvent(id, model.MatchEventReminder))
					return err
				})
			}
			if err := g.Wait(); err != nil {
				return fmt.Errorf("enqueue reminders: %w", err)
			}

			log.Printf("[Remind] Enqueued %d reminders (lead=%v window=%v)", len(ids), lead, window)
			return nil
		},
	}

	cmd.Flags().Int64Var(&matchID, "match", 0, "send a reminder for this match id now")
	cmd.Flags().DurationVar(&lead, "lead", 30*time.Minute, "how long before kick-off to remind")
	cmd.Flags().DurationVar(&window, "window", 5*time.Minute, "width of the kick-off window to scan")
	return cmd
}
