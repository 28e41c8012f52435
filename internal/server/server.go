// Package server owns the process lifecycle for the Tradeyard API: it boots
// every subsystem in dependency order, serves HTTP (and optionally gRPC
// health), and shuts everything down cleanly on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeyard/tradeyard/app/jobs"
	"github.com/tradeyard/tradeyard/config"
	"github.com/tradeyard/tradeyard/internal/kernel"
	"github.com/tradeyard/tradeyard/pkg/cache"
	"github.com/tradeyard/tradeyard/pkg/database"
	rpc "github.com/tradeyard/tradeyard/pkg/grpc"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/migration"
	"github.com/tradeyard/tradeyard/pkg/notification"
	"github.com/tradeyard/tradeyard/pkg/queue"
	"github.com/tradeyard/tradeyard/pkg/schedule"
	"github.com/tradeyard/tradeyard/pkg/storage"
)

// Start boots the application and blocks until the process is signalled.
//
// Boot order matters: config before everything, database before migrations
// and the queue's failed-job table, the Redis cache before the Redis queue
// driver. Redis and the Mongo log sink are optional — their absence degrades
// features, it never aborts the boot.
func Start() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := logger.EnableMongoSink(); err != nil {
		logger.Warn("log sink unavailable, stdout only", "error", err)
	}

	if err := database.Connect(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := cache.Connect(); err != nil {
		logger.Warn("cache unavailable, reads fall through to the database", "error", err)
	}
	storage.Connect()

	if err := migration.New(database.DB).Run(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Failed queue jobs land in the database so retries survive restarts.
	queue.UseDB(database.DB)
	if config.QueueDriver() == "redis" && cache.RDB != nil {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}

	notification.SetSlackWebhook(config.Get("SLACK_WEBHOOK_URL", ""))

	jobs.Register()
	jobs.Schedule()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.StartWorkers(ctx, config.QueueWorkers())
	schedule.Start(ctx)

	stopRPC := func() {}
	if port := config.GRPCPort(); port != "" {
		rpc.SetReady(func() bool { return database.DB != nil })
		srv, _, err := rpc.Start(port)
		if err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		stopRPC = func() { rpc.Stop(srv) }
	}

	handler, err := kernel.Handler()
	if err != nil {
		stopRPC()
		return fmt.Errorf("routes: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: the SSE and WebSocket feeds hold their
		// connections open indefinitely.
		IdleTimeout: 2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		stopRPC()
		logger.Shutdown()
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	stopRPC()
	logger.Shutdown()
	return nil
}
