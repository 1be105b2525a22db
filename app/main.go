package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/castfeed/castfeed/app/api"
	"github.com/castfeed/castfeed/app/cfg"
	"github.com/castfeed/castfeed/app/database"
	"github.com/castfeed/castfeed/app/federation"
	"github.com/castfeed/castfeed/app/feed"
	"github.com/castfeed/castfeed/app/ingest"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting CastFeed pipeline", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	// Repositories
	tagRepo := database.NewShowTagRepository(db)
	postRepo := database.NewPostRepository(db)
	subRepo := database.NewSubscriptionRepository(db)
	fedRepo := database.NewFederationRepository(db)

	// Pipeline components
	parser := feed.NewParser()
	fetcher := feed.NewFetcher(&http.Client{}, parser, appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second)
	resolver := ingest.NewTagResolver(tagRepo)
	gate := ingest.NewDedupGate(postRepo)
	worker := ingest.NewWorker(fetcher, parser, resolver, gate, postRepo, subRepo)
	orchestrator := ingest.NewOrchestrator(subRepo, worker, appCfg.WorkerCount)
	dispatcher := federation.NewDispatcher(fedRepo)

	// HTTP server
	handler := api.NewHandler(tagRepo, postRepo, subRepo, fetcher, worker,
		orchestrator, resolver, dispatcher)
	server := api.NewServer(handler, newIdentityClient(), appCfg.CronSecret)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// In-process scheduler: one poll sweep per period, alongside the
	// HTTP-triggered path.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if appCfg.PollInterval > 0 {
		go runScheduler(schedulerCtx, orchestrator,
			time.Duration(appCfg.PollInterval)*time.Second)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}

func runScheduler(ctx context.Context, orchestrator *ingest.Orchestrator, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Scheduler started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopped")
			return
		case <-ticker.C:
			if _, err := orchestrator.PollAll(ctx); err != nil {
				slog.Error("Scheduled poll failed", "error", err)
			}
		}
	}
}
