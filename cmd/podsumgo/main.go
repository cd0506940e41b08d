package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"podsumgo/internal/api"
	"podsumgo/pkg/cache"
	"podsumgo/pkg/catalog"
	"podsumgo/pkg/config"
	"podsumgo/pkg/db"
	"podsumgo/pkg/db/maintenance"
	"podsumgo/pkg/llm/gemini"
	"podsumgo/pkg/logging"
	"podsumgo/pkg/probe"
	"podsumgo/pkg/request"
	"podsumgo/pkg/store"
	"podsumgo/pkg/summarizer"
	"podsumgo/pkg/tracker"
	"podsumgo/pkg/version"
	"podsumgo/pkg/webpage"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/podsum.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/podsum.yaml")
		return
	}

	if err := run(context.Background(), "configs/podsum.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Credentials may live in a .env file next to the binary.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log, &appCfg.History)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("PodSumGo Started", "version", version.Version)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()

	if err := maintenance.Run(ctx, dbConn, time.Duration(appCfg.Cache.TTL)); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}

	st := store.NewSQLiteStore(dbConn)
	tr := tracker.New()

	reqClient := request.New(cache.NewSQLiteCache(dbConn, time.Duration(appCfg.Cache.TTL)), tr, request.Options{
		Retries:   appCfg.Request.Retries,
		Timeout:   time.Duration(appCfg.Request.Timeout),
		BaseDelay: time.Duration(appCfg.Request.Backoff.BaseDelay),
		MaxDelay:  time.Duration(appCfg.Request.Backoff.MaxDelay),
	})

	provider, err := gemini.NewClient(appCfg.LLM, appCfg.History.LLM.Path, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	defer provider.Close()

	catalogClient := catalog.NewClient(appCfg.Catalog, reqClient)
	fetcher := webpage.NewFetcher(reqClient)
	pipeline := summarizer.New(provider, fetcher, reqClient, appCfg.Summarizer.MaxAudioBytes)

	// Startup probes: neither check is fatal, the server runs in a
	// degraded mode without credentials and reports 503s instead.
	results := probe.Run(ctx, []probe.Probe{
		{Name: "Gemini", Check: provider.HealthCheck},
		{Name: "ListenNotes", Check: func(context.Context) error {
			if !catalogClient.Configured() {
				return fmt.Errorf("no api key configured")
			}
			return nil
		}},
	})
	if err := probe.AnalyzeResults(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, appCfg, catalogClient, pipeline, st, tr)
}

func runServer(ctx context.Context, cfg *config.Config, catalogClient *catalog.Client, pipeline *summarizer.Service, st store.Store, tr *tracker.Tracker) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	hub := api.NewProgressHub()
	srv := api.NewServer(cfg.Server.Address,
		api.NewPodcastHandler(catalogClient),
		api.NewSummarizeHandler(pipeline, st, st, hub),
		api.NewSummariesHandler(st),
		api.NewStatsHandler(tr, st),
		hub,
		shutdownFunc,
	)

	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
