package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vodeneev/parlaybot/internal/analyzer/analyzer"
	"github.com/Vodeneev/parlaybot/internal/pkg/apisports"
	"github.com/Vodeneev/parlaybot/internal/pkg/config"
	"github.com/Vodeneev/parlaybot/internal/pkg/logging"
	"github.com/Vodeneev/parlaybot/internal/pkg/rowdie"
	"github.com/Vodeneev/parlaybot/internal/pkg/storage"
)

const (
	defaultConfigPath = "configs/production.yaml"
)

func main() {
	fmt.Println("Starting Match Analyzer...")

	var configPath string
	var listenAddr string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&listenAddr, "listen", "", "HTTP listen address, overrides analyzer.listen (e.g. :8080)")
	flag.Parse()

	fmt.Printf("Loading config from: %s\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applied := cfg.ApplyEnv(os.Getenv)

	_, err = logging.SetupLogger(&cfg.Logging, "analyzer")
	if err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	} else {
		slog.Info("Logging initialized", "service", "analyzer")
	}

	for _, name := range applied {
		slog.Info("Using value from environment", "var", name)
		log.Printf("analyzer: using %s from environment", name)
	}
	if listenAddr == "" {
		listenAddr = cfg.Analyzer.Listen
	}

	fmt.Println("Config loaded successfully")

	api, err := apisports.NewClient(cfg.API)
	if err != nil {
		log.Fatalf("analyzer: failed to create prediction API client: %v", err)
	}

	var cache storage.Cache
	switch cfg.Cache.Driver {
	case "redis":
		redisCache, err := storage.NewRedisCache(&cfg.Cache)
		if err != nil {
			log.Fatalf("analyzer: failed to connect to redis: %v", err)
		}
		cache = redisCache
	default:
		fileCache, err := storage.NewFileCache(cfg.Cache.Dir)
		if err != nil {
			log.Fatalf("analyzer: failed to open file cache: %v", err)
		}
		cache = fileCache
	}
	defer func() {
		if err := cache.Close(); err != nil {
			log.Printf("analyzer: error closing cache: %v", err)
		}
	}()
	slog.Info("Cache initialized", "driver", cfg.Cache.Driver)

	deps := analyzer.Deps{API: api, Cache: cache}

	if cfg.Postgres.DSN != "" {
		log.Println("analyzer: initializing PostgreSQL report storage...")
		pgStorage, err := storage.NewPostgresReportStorage(&cfg.Postgres)
		if err != nil {
			log.Fatalf("analyzer: failed to initialize PostgreSQL storage: %v", err)
		}
		deps.Reports = pgStorage
		defer func() {
			if err := pgStorage.Close(); err != nil {
				log.Printf("analyzer: error closing PostgreSQL storage: %v", err)
			}
		}()
	} else if cfg.Analyzer.AsyncEnabled {
		log.Fatalf("analyzer: postgres DSN is required when async is enabled. Set it in config or POSTGRES_DSN env var")
	} else {
		slog.Warn("Postgres DSN not set, evaluation history and bot users are disabled")
	}

	if cfg.Rowdie.URL != "" {
		// nil keeps kickoffs in the analyzer timezone.
		pageLoc, err := cfg.Rowdie.Location(nil)
		if err != nil {
			log.Fatalf("analyzer: %v", err)
		}
		deps.Tips = rowdie.NewScraper(cfg.Rowdie, pageLoc)
	}

	if cfg.Analyzer.AsyncEnabled && cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		notifier, err := analyzer.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Error("Failed to create Telegram notifier, alerts disabled", "error", err)
		} else {
			deps.Notifier = notifier
			defer notifier.Stop()
		}
	}

	svc, err := analyzer.New(cfg, deps)
	if err != nil {
		log.Fatalf("analyzer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping analyzer...")
		log.Println("Received shutdown signal, stopping analyzer...")
		cancel()
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("pong\n"))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	svc.RegisterHTTP(mux)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		slog.Info("HTTP server listening", "addr", listenAddr)
		log.Printf("analyzer: http server listening on %s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			log.Printf("analyzer: http server error: %v", err)
		}
	}()

	slog.Info("Starting Match Analyzer", "timezone", svc.Location().String())
	log.Println("Starting Match Analyzer...")
	if err := svc.Start(ctx); err != nil {
		slog.Error("Analyzer failed", "error", err)
		log.Fatalf("Analyzer failed: %v", err)
	}

	slog.Info("Match Analyzer stopped")
	log.Println("Match Analyzer stopped")
}
