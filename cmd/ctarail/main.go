package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ctarail/internal/cache"
	"ctarail/internal/config"
	"ctarail/internal/handler"
	"ctarail/internal/hub"
	"ctarail/internal/ingestor"
	"ctarail/internal/schedule"
	"ctarail/internal/store"
	"ctarail/pkg/ctaapi"
	"ctarail/pkg/gtfs"
)

func main() {
	processRaw := flag.String("process-raw", "", "flatten one day of raw location snapshots (YYYY-MM-DD) and exit")
	flag.Parse()

	// Only useful for local runs; a missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ctarail server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"data_dir", cfg.DataDir,
		"tracker_enabled", cfg.TrackerEnabled,
	)

	objects, err := store.NewFSStore(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open artifact store", "error", err)
		os.Exit(1)
	}

	if *processRaw != "" {
		day, err := time.Parse("2006-01-02", *processRaw)
		if err != nil {
			logger.Error("invalid -process-raw date", "value", *processRaw, "error", err)
			os.Exit(1)
		}
		if _, err := ingestor.ProcessRawLocations(context.Background(), objects, day, logger); err != nil {
			logger.Error("raw processing failed", "error", err)
			os.Exit(1)
		}
		return
	}

	var resultCache *cache.RedisCache
	if cfg.RedisEnabled {
		resultCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without result cache", "error", err)
		} else {
			defer resultCache.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := schedule.NewService(objects, resultCache, cfg.CacheTTL, logger)
	if err := service.Reload(ctx); err != nil {
		logger.Warn("initial schedule load failed", "error", err)
	}

	fetcher := gtfs.NewFetcher(cfg.GTFSURL, objects, logger)
	scheduleIng := ingestor.NewScheduleIngestor(fetcher, objects, service, cfg.GTFSCheckInterval, logger)

	trains := store.NewTrainStore(cfg.TrainStaleAfter)
	wsHub := hub.NewHub(logger)

	var poller *ingestor.LocationPoller
	if cfg.TrackerEnabled {
		client := ctaapi.New(cfg.TrackerBaseURL, cfg.TrackerAPIKey, cfg.PollMaxRetries, logger)
		poller = ingestor.NewLocationPoller(client, trains, objects, wsHub, cfg.PollInterval, logger)
	}

	scheduleHandler := handler.NewScheduleHandler(service, logger)
	trainsHandler := handler.NewTrainsHandler(trains)
	wsHandler := handler.NewWSHandler(wsHub, trains, logger)
	healthHandler := handler.NewHealthHandler(service, trains)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/lines", scheduleHandler.ListLines)
	mux.HandleFunc("GET /v1/schedule/trips-per-hour", scheduleHandler.TripsPerHour)
	mux.HandleFunc("GET /v1/schedule/headways", scheduleHandler.Headways)
	mux.HandleFunc("GET /v1/schedule/runs", scheduleHandler.Runs)

	mux.HandleFunc("GET /v1/trains", trainsHandler.ListTrains)
	mux.HandleFunc("/v1/ws", wsHandler.ServeWS)

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.CORSMiddleware(handler.GzipMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go wsHub.Run(ctx)
	go scheduleIng.Run(ctx)
	if poller != nil {
		go poller.Run(ctx)
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
