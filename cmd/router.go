package main

import (
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/backup-config/internal/handler"
	"github.com/angeloszaimis/backup-config/internal/metrics"
	"github.com/angeloszaimis/backup-config/internal/render"
)

func setupRouter(logger *slog.Logger, renderer *render.Renderer, metricsCollector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /render/{job}", handler.NewRenderHandler(logger, renderer))
	mux.HandleFunc("GET /metrics", metricsCollector.Handler(renderer.Namespace()))

	return handler.WithRequestID(handler.AccessLog(logger, mux))
}
