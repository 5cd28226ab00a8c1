package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bozoleague/propline/internal/adapters/http/api"
	"github.com/bozoleague/propline/internal/adapters/http/swagger"
	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/internal/adapters/schedule"
	app "github.com/bozoleague/propline/internal/app"
	"github.com/bozoleague/propline/internal/config"
	"github.com/bozoleague/propline/pkg/logger"
	"github.com/bozoleague/propline/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// The engine registry carries its own metrics; the default Go and
	// process collectors would double up.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithOracleRate(cfg.OracleRate, cfg.OracleBurst),
	}

	if cfg.Store == "sqlite" {
		store, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			os.Stderr.WriteString("failed to open sqlite store: " + err.Error() + "\n")
			return
		}
		opts = append(opts, app.WithStore(store))
		log.Info(ctx, "using sqlite store", logger.String("path", cfg.SQLitePath))
	}

	if cfg.ResolveCron != "" {
		gate, err := schedule.NewCronGate(cfg.ResolveCron, time.Duration(cfg.ResolveWindowMinutes)*time.Minute)
		if err != nil {
			os.Stderr.WriteString("failed to parse resolve_cron: " + err.Error() + "\n")
			return
		}
		opts = append(opts, app.WithGate(gate))
		log.Info(ctx, "resolution gated by schedule", logger.String("cron", cfg.ResolveCron))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop(context.Background())

	if cfg.CatalogFeed != "" {
		if err := svc.LoadCatalogFeed(ctx, cfg.CatalogFeed); err != nil {
			log.Error(ctx, "catalog feed load failed", logger.String("path", cfg.CatalogFeed), logger.Error(err))
		}
	}

	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, cfg.MaxStandingsLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater publishes service gauges on an interval.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if workerCount, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(workerCount)
			}
		}
	}
}
