// Command dod-prohibited serves the DoD prohibited dietary supplement
// ingredients list as a JSON API with generated markdown documentation.
// It periodically regenerates the dataset from the source page, tracks
// changes in a SQLite snapshot and a changelog, and optionally enriches
// substances with UNII identifiers.
package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gooosetavo/dod-prohibited/config"
	"github.com/gooosetavo/dod-prohibited/data"
	"github.com/gooosetavo/dod-prohibited/docsite"
	"github.com/gooosetavo/dod-prohibited/handlers"
	"github.com/gooosetavo/dod-prohibited/health"
	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/retrieval"
	"github.com/gooosetavo/dod-prohibited/scheduler"
	"github.com/gooosetavo/dod-prohibited/server"
	"github.com/gooosetavo/dod-prohibited/storage"
	"github.com/gooosetavo/dod-prohibited/substances"
	"github.com/gooosetavo/dod-prohibited/uniiclient"
	"github.com/gooosetavo/dod-prohibited/validation"
)

func main() {
	// Read the env variables, falling back to the executable directory
	if err := godotenv.Load(); err != nil {
		if ex, exErr := os.Executable(); exErr == nil {
			godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logging.Error("Failed to open snapshot store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	fetcher := retrieval.NewPageFetcher(nil, cfg.SourceURL, cfg.UserAgent)

	var enricher *substances.Enricher
	if cfg.UniiEnabled {
		client := uniiclient.NewClient(nil, uniiclient.DefaultArchiveURL, cfg.UserAgent, cfg.UniiCacheDir)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		index, err := uniiclient.BuildIndex(ctx, client)
		cancel()
		if err != nil {
			// Enrichment is optional, the dataset is still useful without it
			logging.Warn("UNII index unavailable, continuing without enrichment", "error", err)
		} else {
			enricher = substances.NewEnricher(index.Lookup)
		}
	}

	validator := validation.NewDataValidator()
	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	pipeline := scheduler.NewPipeline(dataContainer, fetcher, store, validator,
		enricher, docsite.NewGenerator(cfg.DocsDir), cfg.ChangelogPath)

	sched := scheduler.NewScheduler(dataContainer, pipeline)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	healthChecker := health.NewHealthChecker(dataContainer)
	handler := handlers.NewHTTPHandler(dataContainer, validator, healthChecker, cfg.ChangelogPath)
	srv := server.NewServer(cfg, handler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	// Attempt graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
	}
}
