// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"partner-insights/internal/app"
	"partner-insights/internal/common/camunda"
	"partner-insights/internal/common/config"
	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/observability"
	"partner-insights/pkg/registry"

	ap "partner-insights/internal/workers/partners/aggregate-partners"
	anp "partner-insights/internal/workers/partners/analyze-partner"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log, app.Options{Observability: obs})
	if err != nil {
		zapLog.Fatal("application init failed", zap.Error(err))
	}
	defer application.Close()

	// --- Init Zeebe Client with retry ---
	zeebe, err := camunda.Connect(ctx, camunda.ConfigFromApp(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Register Workers ---
	{
		handler, err := ap.NewHandler(ap.HandlerOptions{
			AppConfig:     cfg,
			Logger:        log,
			Observability: obs,
		})
		if err != nil {
			zapLog.Fatal("failed to create aggregate-partners handler", zap.Error(err))
		}
		startWorker(zeebe, cfg, ap.TaskType, handler.MaxJobsActive(), handler.Handle)
	}
	{
		handler, err := anp.NewHandler(anp.HandlerOptions{
			AppConfig:     cfg,
			Session:       application.Session,
			Logger:        log,
			Observability: obs,
		})
		if err != nil {
			zapLog.Fatal("failed to create analyze-partner handler", zap.Error(err))
		}
		startWorker(zeebe, cfg, anp.TaskType, handler.MaxJobsActive(), handler.Handle)
	}
	zapLog.Info("Workers registered", zap.Strings("taskTypes", zeebe.Workers()))

	if reg, err := registry.LoadRegistry("configs/activity-registry.json"); err != nil {
		zapLog.Warn("activity registry not loaded", zap.Error(err))
	} else if missing := reg.Missing(ap.TaskType, anp.TaskType); len(missing) > 0 {
		zapLog.Warn("workers missing from activity registry", zap.Strings("taskTypes", missing))
	}

	// --- Health & Metrics Server ---
	var server *http.Server
	if cfg.Metrics.Enabled {
		server = app.NewHealthServer(cfg.Metrics.Address, map[string]app.ReadyCheck{
			"zeebe": zeebe.HealthCheck,
			"cache": application.Ready,
		})
		go func() {
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
		}
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, cfg *config.Config, taskType string, maxJobsActive int, handle camunda.HandlerFunc) {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	wcfg.MaxJobsActive = maxJobsActive
	client.StartWorker(taskType, wcfg, handle)
}
