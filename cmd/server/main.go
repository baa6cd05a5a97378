package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/contact-engine/internal/api"
	"github.com/ignite/contact-engine/internal/archive"
	"github.com/ignite/contact-engine/internal/config"
	"github.com/ignite/contact-engine/internal/contacts"
	"github.com/ignite/contact-engine/internal/deletion"
	"github.com/ignite/contact-engine/internal/extraction"
	"github.com/ignite/contact-engine/internal/pkg/logger"
	"github.com/ignite/contact-engine/internal/progress"
	"github.com/ignite/contact-engine/internal/reconcile"
	"github.com/ignite/contact-engine/internal/repository/postgres"
	"github.com/ignite/contact-engine/internal/store"
	"github.com/ignite/contact-engine/internal/workflow"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func logLevel(name string) logger.Level {
	switch strings.ToLower(name) {
	case "debug":
		return logger.DEBUG
	case "warn":
		return logger.WARN
	case "error":
		return logger.ERROR
	default:
		return logger.INFO
	}
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(logLevel(cfg.Log.Level))
	if cfg.Log.RedactPII != nil {
		logger.SetRedactPII(*cfg.Log.RedactPII)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	logger.Info("pre-flight check passed", "port", cfg.Server.Port)

	// Persistent store: embedded Postgres repository or remote HTTP service.
	var (
		contactStore store.Store
		db           *sql.DB
	)
	switch cfg.Store.Mode {
	case "postgres":
		db, err = sql.Open("postgres", cfg.Store.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			cancel()
			log.Fatalf("Database unreachable: %v", err)
		}
		cancel()
		contactStore = postgres.NewContactRepo(db)
		logger.Info("store ready", "mode", "postgres")
	case "remote":
		contactStore = store.NewClient(store.ClientConfig{
			BaseURL: cfg.Store.BaseURL,
			APIKey:  cfg.Store.APIKey,
			Timeout: cfg.Store.Timeout(),
		})
		logger.Info("store ready", "mode", "remote", "base_url", cfg.Store.BaseURL)
	}

	// Seed the visible collection from the store.
	listCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	existing, err := contactStore.List(listCtx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to load contacts: %v", err)
	}
	view := contacts.NewView(existing)
	logger.Info("contacts loaded", "count", view.Len())

	// Progress tracking is optional; a nil tracker is a no-op.
	var tracker *progress.Tracker
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		tracker = progress.NewTracker(redisClient, 0)
		logger.Info("progress tracking enabled", "addr", cfg.Redis.Addr)
	}

	events := api.NewEventHub()

	var extractor extraction.Extractor
	if cfg.Extraction.Enabled {
		extractor = extraction.NewClient(cfg.Extraction.BaseURL, cfg.Extraction.APIKey)
		logger.Info("extraction enabled", "base_url", cfg.Extraction.BaseURL)
	}

	reconciler := reconcile.New(contactStore, view)
	imports := workflow.NewManager(reconciler, extractor, events, tracker)
	deleter := deletion.NewCoordinator(view, contactStore, events, cfg.Deletion.GraceWindow())

	var archiver *archive.Uploader
	if cfg.Archive.Enabled && cfg.Archive.S3Bucket != "" {
		archiver, err = archive.New(context.Background(),
			cfg.Archive.S3Bucket, cfg.Archive.AWSRegion, cfg.Archive.GetAWSProfile())
		if err != nil {
			log.Fatalf("Failed to initialize archive uploader: %v", err)
		}
		logger.Info("upload archiving enabled", "bucket", cfg.Archive.S3Bucket)
	}

	server := api.NewServer(api.Options{
		Imports:        imports,
		View:           view,
		Store:          contactStore,
		Deleter:        deleter,
		Tracker:        tracker,
		Events:         events,
		Archiver:       archiver,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		errCh <- server.ListenAndServe(cfg.Server.Addr())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err.Error())
	}

	// Cancel pending deletions before collaborators go away.
	deleter.Shutdown()

	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
	logger.Info("shutdown complete")
}
