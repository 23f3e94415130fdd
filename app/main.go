package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BigLoafin/mr-turtle-bot-reddit/app/api"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/bot"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/cfg"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/metrics"
	"github.com/BigLoafin/mr-turtle-bot-reddit/app/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Mr. Turtle", "version", appCfg.Version, "source", appCfg.Source, "state", appCfg.StateBackend, "dry_run", appCfg.DryRun)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(registry)

	b := bot.New(ctx, appCfg)

	scheduler := tasks.NewScheduler(b.Jobs(), 5*time.Minute)
	scheduler.Start()

	handler := api.NewHandler(b.Publisher, b.Tracker, appCfg.Version, appCfg.DryRun, b.PostPoller, b.CommentPoller)
	server := api.NewServer(handler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped, bot keeps polling", "error", err)
		}
	}()

	slog.Info("Mr. Turtle started, watching subreddits", "subreddits", appCfg.Subreddits)

	<-ctx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	slog.Info("Background scheduler stopped")

	if err := b.Close(shutdownCtx); err != nil {
		slog.Error("Failed to flush state on shutdown", "error", err)
	}

	slog.Info("Mr. Turtle shutdown complete")
}
