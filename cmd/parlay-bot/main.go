package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/parlaybot/internal/analyzer/analyzer"
	"github.com/Vodeneev/parlaybot/internal/bot"
	"github.com/Vodeneev/parlaybot/internal/pkg/config"
	"github.com/Vodeneev/parlaybot/internal/pkg/logging"
)

const (
	defaultConfigPath = "configs/production.yaml"
	updateTimeout     = 60
)

func main() {
	var configPath string
	var token string
	var analyzerURL string
	var allowedUsers string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&token, "token", "", "Telegram bot token (overrides config and TELEGRAM_BOT_TOKEN)")
	flag.StringVar(&analyzerURL, "analyzer-url", "", "Analyzer service URL (overrides config and ANALYZER_URL)")
	flag.StringVar(&allowedUsers, "allowed-users", "", "Comma-separated list of allowed user IDs (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Config %s not loaded (%v), using defaults", configPath, err)
		def := config.Default()
		cfg = &def
	}
	applied := cfg.ApplyEnv(os.Getenv)

	if _, err := logging.SetupLogger(&cfg.Logging, "parlay-bot"); err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}
	for _, name := range applied {
		slog.Info("Using value from environment", "var", name)
	}

	if token != "" {
		cfg.Telegram.BotToken = token
	}
	if analyzerURL != "" {
		cfg.Telegram.AnalyzerURL = analyzerURL
	}
	if cfg.Telegram.BotToken == "" {
		log.Fatal("Telegram bot token is required. Set -token flag, telegram.bot_token or TELEGRAM_BOT_TOKEN env var")
	}

	var allowed []int64
	if allowedUsers != "" {
		for _, idStr := range strings.Split(allowedUsers, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64); err == nil {
				allowed = append(allowed, id)
			}
		}
	}

	loc, err := cfg.API.Location()
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	client := analyzer.NewHTTPClient(cfg.Telegram.AnalyzerURL, 5*time.Minute)
	if client == nil {
		log.Fatal("Analyzer URL is required. Set -analyzer-url, telegram.analyzer_url or ANALYZER_URL env var")
	}

	log.Printf("Starting Telegram bot...")
	log.Printf("Analyzer URL: %s", cfg.Telegram.AnalyzerURL)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	api.Debug = false
	slog.Info("Authorized on account", "username", api.Self.UserName)

	b := bot.New(api, client, bot.Config{
		AdminIDs:       cfg.Telegram.AdminIDs,
		AllowedUserIDs: allowed,
		Location:       loc,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping bot...")
		cancel()
	}()

	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	b.Run(ctx, updates)
	log.Println("Telegram bot stopped")
}
