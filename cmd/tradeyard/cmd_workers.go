package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tradeyard/tradeyard/app/jobs"
	"github.com/tradeyard/tradeyard/config"
	"github.com/tradeyard/tradeyard/pkg/cache"
	"github.com/tradeyard/tradeyard/pkg/database"
	"github.com/tradeyard/tradeyard/pkg/queue"
	"github.com/tradeyard/tradeyard/pkg/schedule"
	"github.com/tradeyard/tradeyard/pkg/storage"
)

var queueWorkersFlag int

// bootWorker prepares everything a detached worker needs: config, database
// (for failed-job persistence), storage disks (cleanup jobs delete blobs)
// and the job registry. With the default in-memory queue driver, jobs only
// exist inside the serve process; a separate worker needs QUEUE_DRIVER=redis.
func bootWorker() error {
	if err := bootDB(); err != nil {
		return err
	}
	storage.Connect()
	queue.UseDB(database.DB)

	if config.QueueDriver() == "redis" {
		if err := cache.Connect(); err != nil {
			return fmt.Errorf("redis queue driver: %w", err)
		}
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}

	jobs.Register()
	return nil
}

// tradeyard queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootWorker(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = config.QueueWorkers()
		}

		fmt.Printf("Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(ctx, workers)

		<-ctx.Done()
		fmt.Println("\nQueue worker stopped.")
		return nil
	},
}

// tradeyard schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootWorker(); err != nil {
			return err
		}
		jobs.Schedule()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tasks := schedule.List()
		if len(tasks) == 0 {
			fmt.Println("No scheduled tasks registered.")
		} else {
			fmt.Println("Registered scheduled tasks:")
			for _, t := range tasks {
				fmt.Println("  •", t)
			}
		}

		fmt.Println("Scheduler started. Press Ctrl+C to stop.")
		schedule.Start(ctx)

		<-ctx.Done()
		fmt.Println("\nScheduler stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 0, "Number of concurrent workers (default QUEUE_WORKERS)")
}
