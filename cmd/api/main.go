package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/finance-insights/internal/advisor"
	"github.com/dvloznov/finance-insights/internal/aggregator"
	"github.com/dvloznov/finance-insights/internal/api"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/gateway"
	"github.com/dvloznov/finance-insights/internal/infra"
	infraFS "github.com/dvloznov/finance-insights/internal/infra/firestore"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/projection"
	"github.com/dvloznov/finance-insights/internal/reportstore"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()

	log, err := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, JSON: cfg.LogFormat == "json"})
	if err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("Unknown log level, using info")
	}

	ctx := logger.WithContext(context.Background(), log)

	// Initialize repositories
	backend, err := infra.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open store")
	}
	defer closer(log, backend.Name, backend.Close)()

	auth, closeAuth, err := authMiddleware(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("mode", cfg.AuthMode).Msg("Failed to initialize auth")
	}
	defer closeAuth()

	thresholds := insights.DefaultConfig()
	if cfg.InsightsConfig != "" {
		if thresholds, err = insights.LoadFromFile(cfg.InsightsConfig); err != nil {
			log.Fatal().Err(err).Msg("Failed to load insight thresholds")
		}
	}
	adv := advisor.New(aggregator.New(backend.Repository), insights.NewEngine(thresholds), projection.Calculator{})

	completer, err := gateway.NewCompleter(ctx, cfg.Provider())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create completion provider")
	}
	if completer == nil {
		log.Warn().Str("provider", cfg.LLMProvider).Msg("No completion provider configured - chat will use template replies")
	}
	gw := gateway.New(completer, gateway.WithTimeout(cfg.LLMTimeout))

	deps := api.Deps{
		Advisor: adv,
		Gateway: gw,
		Auth:    auth,
		Log:     log,
	}

	// Initialize job infrastructure
	var (
		jobQueue     *inmemory.Queue
		cancelWorker = func() {}
	)
	if cfg.ReportsBucket == "" {
		log.Warn().Msg("No REPORTS_BUCKET configured - report exports will be disabled")
	} else {
		objects, err := reportstore.NewGCSStore(ctx, cfg.ReportsBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report store")
		}
		defer objects.Close()

		jobStore := inmemory.NewStore()
		jobQueue = inmemory.NewQueue(100, jobStore)

		var workerCtx context.Context
		workerCtx, cancelWorker = context.WithCancel(ctx)

		log.Info().Str("bucket", cfg.ReportsBucket).Msg("Starting report worker")
		if err := jobQueue.Start(workerCtx, reportstore.NewExporter(adv, objects).Handle); err != nil {
			log.Fatal().Err(err).Msg("Failed to start report worker")
		}

		deps.Publisher = jobQueue
		deps.Jobs = jobStore
		deps.Reports = objects
	}
	defer cancelWorker()

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", *port).
			Str("store", cfg.StoreBackend).
			Str("auth", cfg.AuthMode).
			Str("llm", cfg.LLMProvider).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if jobQueue != nil {
		// Stop job queue and wait for in-flight jobs
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
	}
	// Exports still running past the deadline are cancelled here.
	cancelWorker()

	log.Info().Msg("Server exited")
}

// authMiddleware returns the /api auth middleware for cfg.AuthMode.
func authMiddleware(ctx context.Context, cfg *config.Config) (func(http.Handler) http.Handler, func(), error) {
	if cfg.AuthMode != config.AuthFirebase {
		log := logger.FromContext(ctx)
		log.Warn().Msg("Trusting the " + middleware.UserIDHeader + " header for caller identity")
		return middleware.HeaderAuth, func() {}, nil
	}

	client, err := infraFS.NewClient(ctx, cfg.FirestoreProject, cfg.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}
	return middleware.FirebaseAuth(client.Auth), closer(logger.FromContext(ctx), "firebase", client.Close), nil
}

func closer(log zerolog.Logger, name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			log.Error().Err(err).Str("resource", name).Msg("Failed to close")
		}
	}
}
