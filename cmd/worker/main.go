// Package main runs the background worker that delivers notification jobs:
// it persists panel entries and pushes them to the realtime feed.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/serene-wellness/backend/config"
	"github.com/serene-wellness/backend/internal/notifications"
	"github.com/serene-wellness/backend/internal/realtime"
	"github.com/serene-wellness/backend/internal/worker"
	"github.com/serene-wellness/backend/pkg/database"
	"github.com/serene-wellness/backend/pkg/queue"
	"github.com/serene-wellness/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)
	repo := notifications.NewRepository(pool)
	feed := realtime.NewRedisPubSub(rdb.Client, logger)
	dispatcher := worker.NewNotificationDispatcher(repo, feed, jobQueue, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker")
		cancel()
	}()

	logger.Info("worker started", zap.String("queue", queue.QueueNotifications))
	dispatcher.Run(ctx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
