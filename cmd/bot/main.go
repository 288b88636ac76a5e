package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"school_points_bot/internal/app"
	"school_points_bot/internal/domain/ledger"
	"school_points_bot/internal/infra/config"
	"school_points_bot/internal/infra/logger"
	"school_points_bot/internal/infra/scheduler"
	"school_points_bot/internal/infra/storage"
	itelegram "school_points_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Get().WithField("process", "bot")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("School points bot starting")

	// Select the store backend: Postgres when DATABASE_URL is set, the
	// shared JSON file otherwise.
	var store ledger.Store
	if cfg.DatabaseURL != "" {
		db, err := storage.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not connect to database")
		}
		defer db.Close()
		store, err = storage.NewPostgresStore(db, mainLogger)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not initialize Postgres store")
		}
		mainLogger.Info("Using Postgres store backend")
	} else {
		store = storage.NewJSONFileStore(cfg.DataFile, mainLogger)
		mainLogger.WithField("data_file", cfg.DataFile).Info("Using JSON file store backend")
	}

	identitySvc := app.NewIdentityService(store, cfg.AdminSecret, mainLogger)
	ledgerSvc := app.NewLedgerService(store, mainLogger)
	querySvc := app.NewQueryService(store, identitySvc)

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		// One HTTP client for all outbound calls; its timeout bounds each
		// broadcast delivery so a single unreachable recipient cannot
		// stall the fan-out.
		Client: &http.Client{Timeout: cfg.BroadcastTimeout},
		OnError: func(err error, c telebot.Context) {
			entry := mainLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Unhandled telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	broadcastSvc := app.NewBroadcastService(store, itelegram.NewTelebotAdapter(bot), mainLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	itelegram.RegisterStudentHandlers(ctx, bot, identitySvc, querySvc, mainLogger)
	itelegram.RegisterAdminHandlers(ctx, bot, ledgerSvc, broadcastSvc, identitySvc, mainLogger)
	mainLogger.Info("Command handlers registered")

	digest := scheduler.NewDigestScheduler(querySvc, broadcastSvc, mainLogger, cfg.CronSpecDigest, cfg.DigestClass)
	if err := digest.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start digest scheduler")
	}

	go bot.Start()
	mainLogger.Info("Bot is polling")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down...")
	digest.Stop()
	bot.Stop()
	mainLogger.Info("Bot shut down gracefully")
}
