package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/angeloszaimis/todo-service/config"
	"github.com/angeloszaimis/todo-service/internal/httpserver"
	"github.com/angeloszaimis/todo-service/internal/metrics"
	"github.com/angeloszaimis/todo-service/internal/store"
	"github.com/angeloszaimis/todo-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Logging.Level, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Todo service stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	todos, err := store.New(cfg.Store.Backend)
	if err != nil {
		return err
	}
	defer todos.Close()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.BufferSize, log)
		collector.Start(ctx)
	}

	read, write, idle := cfg.Server.Timeouts()
	srv, err := httpserver.New(cfg.Server.HTTPAddr(), setupRouter(log, cfg, todos, collector), log,
		httpserver.Timeouts{Read: read, Write: write, Idle: idle})
	if err != nil {
		return err
	}

	if err := srv.Listen(); err != nil {
		return err
	}

	log.Info("Todo service started",
		slog.String("addr", srv.Addr()),
		slog.String("store", cfg.Store.Backend),
		slog.Bool("metrics", cfg.Metrics.Enabled))

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		return nil
	case err := <-srvErrCh:
		return err
	}
}
