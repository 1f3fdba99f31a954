package main

import (
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/todo-service/config"
	"github.com/angeloszaimis/todo-service/internal/handler"
	"github.com/angeloszaimis/todo-service/internal/metrics"
	"github.com/angeloszaimis/todo-service/internal/store"
)

// setupRouter builds the whole HTTP surface without binding a port.
func setupRouter(log *slog.Logger, cfg *config.Config, todos store.Store, collector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()

	todoHandler := handler.NewTodoHandler(log, todos, collector, handler.Options{
		BaseURL:        cfg.Server.BaseURL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	todoHandler.Register(mux)

	mux.HandleFunc("GET /health", handler.Health)

	if collector != nil {
		mux.Handle("GET "+cfg.Metrics.Path, collector.Handler())
	}

	return handler.Wrap(mux, log, collector)
}
