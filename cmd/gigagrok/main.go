package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HerbHall/gigagrok/internal/access"
	"github.com/HerbHall/gigagrok/internal/chat"
	"github.com/HerbHall/gigagrok/internal/config"
	"github.com/HerbHall/gigagrok/internal/event"
	"github.com/HerbHall/gigagrok/internal/health"
	"github.com/HerbHall/gigagrok/internal/llm/grok"
	"github.com/HerbHall/gigagrok/internal/metrics"
	"github.com/HerbHall/gigagrok/internal/store"
	"github.com/HerbHall/gigagrok/internal/telegram"
	"github.com/HerbHall/gigagrok/internal/version"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("GigaGrok starting", zap.String("version", version.Short()))
	if *configPath != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", *configPath),
		)
	} else {
		logger.Info("no configuration file given, using environment and defaults",
			zap.String("component", "config"),
		)
	}

	// Open database and bring the schema up to date.
	db, err := store.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.CheckVersion(ctx, version.Version); err != nil {
		logger.Fatal("schema version check failed", zap.Error(err))
	}
	if err := db.Migrate(ctx, store.Migrations); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", cfg.Database.Path),
	)

	// Shared services.
	bus := event.NewBus(logger.Named("event"))
	bus.Subscribe(chat.TopicCompleted, func(ctx context.Context, ev event.Event) {
		if c, ok := ev.Payload.(chat.Completed); ok {
			metrics.ObserveCompletion(c.Usage, c.CostUSD)
		}
	})

	// Upstream API client.
	grokCfg := grok.DefaultConfig()
	grokCfg.BaseURL = cfg.XAI.BaseURL
	grokCfg.Timeout = cfg.XAI.Timeout
	grokCfg.MaxTokens = cfg.XAI.MaxOutputTokens
	client, err := grok.New(grokCfg, cfg.XAI.APIKey, logger.Named("grok"))
	if err != nil {
		logger.Fatal("failed to create API client", zap.Error(err))
	}
	defer client.Close()

	// Telegram transport.
	tg, err := telegram.NewClient(cfg.Telegram, logger.Named("telegram"))
	if err != nil {
		logger.Fatal("failed to create telegram client", zap.Error(err))
	}

	checker := access.New(cfg.Access, db, logger.Named("access"))

	chatCfg := cfg.Chat
	chatCfg.Model = cfg.XAI.Model
	chatCfg.MaxTokens = cfg.XAI.MaxOutputTokens
	chatCfg.ReasoningEffort = cfg.XAI.ReasoningEffort
	handler := chat.NewHandler(client, db, checker, bus, cfg.Pricing, chatCfg, logger.Named("chat"))

	healthServer := health.NewServer(cfg.Health.Addr, db, logger.Named("health"))
	healthServer.Start()

	poller := telegram.NewPoller(tg, func(ctx context.Context, userID, chatID int64, text string) {
		surface := telegram.NewChatSurface(tg, chatID)
		if err := handler.HandleMessage(ctx, userID, text, surface); err != nil {
			logger.Error("message handling failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}, logger.Named("poller"))

	logger.Info("bot running", zap.String("model", cfg.XAI.Model))
	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("poller stopped", zap.Error(err))
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown failed", zap.Error(err))
	}
}
