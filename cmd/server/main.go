package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aigoflow/quality-service/internal/config"
	"github.com/aigoflow/quality-service/internal/models"
	"github.com/aigoflow/quality-service/internal/observability"
	"github.com/aigoflow/quality-service/internal/services"
	"github.com/aigoflow/quality-service/pkg/server"
)

func main() {
	var envFile = flag.String("env", ".env", "Optional .env file to load")
	flag.Parse()

	// Structured logging before config so load warnings are captured too
	observability.InitLogger(observability.LogConfig{Level: "info", Format: "json"})

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	observability.InitLogger(observability.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	catalog, err := models.LoadCatalog(cfg.ParametersFile)
	if err != nil {
		return err
	}
	schema := models.NewSchema(catalog)

	repo, events, err := openRepository(ctx, cfg, schema)
	if err != nil {
		return err
	}
	defer repo.Close()

	logEvent(ctx, events, "info", "startup", "Server starting", map[string]interface{}{
		"http_addr":     cfg.HTTPAddr,
		"scorer":        cfg.Scorer,
		"store_backend": cfg.StoreBackend,
		"parameters":    len(catalog),
	})

	scorer, err := buildScorer(ctx, cfg, catalog)
	if err != nil {
		logEvent(ctx, events, "error", "scorer.failed", "Scorer initialization failed", map[string]interface{}{
			"scorer": cfg.Scorer,
			"error":  err.Error(),
		})
		return err
	}
	logEvent(ctx, events, "info", "scorer.loaded", "Scorer ready", map[string]interface{}{
		"scorer": scorer.Name(),
	})

	metrics := services.NewMetrics()
	analysis := services.NewAnalysisService(scorer, repo, catalog, metrics)
	health := services.NewHealthService(cfg.ServiceName)

	if cfg.NatsURL != "" {
		natsService, err := services.NewNATSService(cfg, analysis, health)
		if err != nil {
			logEvent(ctx, events, "error", "nats.failed", "NATS service initialization failed", map[string]interface{}{
				"nats_url": cfg.NatsURL,
				"error":    err.Error(),
			})
			return err
		}
		natsCtx, stopNATS := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := natsService.Start(natsCtx); err != nil {
				slog.Error("NATS service failed", "error", err)
			}
		}()
		// Runs before repo.Close so drained requests can still be recorded.
		defer func() {
			stopNATS()
			wg.Wait()
		}()
	}

	httpServer := server.NewServer(cfg.HTTPAddr, analysis, health, metrics)
	logEvent(ctx, events, "info", "server.ready", "Server ready to accept requests", map[string]interface{}{
		"http_addr": cfg.HTTPAddr,
		"nats_url":  cfg.NatsURL,
	})
	if err := httpServer.Start(ctx); err != nil {
		logEvent(context.Background(), events, "error", "http.failed", "HTTP server failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	logEvent(context.Background(), events, "info", "shutdown", "Server shutting down", nil)
	return nil
}
