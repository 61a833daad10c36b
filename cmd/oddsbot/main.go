package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rewired-gh/oddsbot/internal/config"
	"github.com/rewired-gh/oddsbot/internal/flow"
	"github.com/rewired-gh/oddsbot/internal/logger"
	"github.com/rewired-gh/oddsbot/internal/metrics"
	"github.com/rewired-gh/oddsbot/internal/oddsapi"
	"github.com/rewired-gh/oddsbot/internal/telegram"
)

var (
	configPath = flag.String("config", "", "Path to configuration file (optional, environment is always read)")
	envFile    = flag.String("env", ".env", "Path to a dotenv file loaded before the configuration")
)

func main() {
	flag.Parse()

	// A missing .env is fine; the variables may come from the real environment
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if *configPath != "" {
		logger.Info("Configuration loaded from %s", *configPath)
	} else {
		logger.Info("Configuration loaded from environment")
	}

	// Metrics are always collected; the endpoint is optional
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	oddsClient := oddsapi.NewClient(
		cfg.OddsAPI.BaseURL,
		cfg.OddsAPI.APIKey,
		cfg.OddsAPI.Timeout,
		oddsapi.ClientConfig{
			Regions:    cfg.OddsAPI.Regions,
			Markets:    cfg.OddsAPI.MarketList(),
			OddsFormat: cfg.OddsAPI.OddsFormat,
		},
	)

	selection := flow.New(oddsClient, flow.Config{
		FetchTimeout:  cfg.OddsAPI.Timeout,
		IdleTimeout:   cfg.Flow.IdleTimeout,
		MaxChoices:    cfg.Flow.MaxChoices,
		MaxSessions:   cfg.Flow.MaxSessions,
		SweepInterval: cfg.Flow.SweepInterval,
	}, m)

	telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, selection, telegram.Options{
		UpdateTimeout:  cfg.Telegram.UpdateTimeout,
		MaxRetries:     cfg.Telegram.MaxRetries,
		RetryDelayBase: cfg.Telegram.RetryDelayBase,
		HandlerTimeout: cfg.Telegram.HandlerTimeout,
	})
	if err != nil {
		logger.Fatal("Failed to initialize Telegram client: %v", err)
	}
	if err := telegramClient.RegisterCommands(); err != nil {
		logger.Warn("Failed to register bot commands: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go selection.Run(ctx)

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Addr, registry)
		go func() {
			logger.Info("Serving metrics on %s", cfg.Metrics.Addr)
			if err := server.Run(ctx); err != nil {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	logger.Info("Listening for commands (markets: %v, regions: %s, idle timeout: %v)",
		cfg.OddsAPI.MarketList(), cfg.OddsAPI.Regions, cfg.Flow.IdleTimeout)
	telegramClient.ListenForCommands(ctx)

	logger.Info("Service stopped")
}
