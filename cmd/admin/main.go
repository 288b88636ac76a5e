package main

import (
	"net/http"
	"time"

	"school_points_bot/internal/app"
	"school_points_bot/internal/domain/ledger"
	"school_points_bot/internal/infra/config"
	"school_points_bot/internal/infra/httpadmin"
	"school_points_bot/internal/infra/logger"
	"school_points_bot/internal/infra/storage"
	itelegram "school_points_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// The dashboard process: an HTTP table editor over the same store the bot
// uses, plus a broadcast panel. Run it next to the data file (or pointed at
// the same DATABASE_URL) and keep it on localhost.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Get().WithField("process", "admin")

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
	} else {
		store = storage.NewJSONFileStore(cfg.DataFile, mainLogger)
	}
	// Reads are TTL-cached to absorb rapid UI reloads; purely a disk-churn
	// optimization, writes invalidate.
	store = storage.NewCachedStore(store, cfg.AdminCacheTTL)

	// The broadcast panel sends through the same bot token. Offline mode
	// (no Telegram connectivity) still serves the tables; only /broadcast
	// needs the bot.
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   cfg.TelegramToken,
		Client:  &http.Client{Timeout: cfg.BroadcastTimeout},
		Offline: true,
	})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram client")
	}
	broadcastSvc := app.NewBroadcastService(store, itelegram.NewTelebotAdapter(bot), mainLogger)

	srv := &http.Server{
		Addr:              cfg.AdminHTTPAddr,
		Handler:           httpadmin.NewServer(store, broadcastSvc, mainLogger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mainLogger.WithField("addr", cfg.AdminHTTPAddr).Info("Admin dashboard listening")
	if err := srv.ListenAndServe(); err != nil {
		mainLogger.WithError(err).Fatal("Admin dashboard stopped")
	}
}
