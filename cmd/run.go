package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appointment-watcher/apperr"
	"appointment-watcher/checker"
	"appointment-watcher/config"
	"appointment-watcher/handlers"
	"appointment-watcher/logging"
	"appointment-watcher/notifier"
	"appointment-watcher/parser"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

const drainTimeout = 10 * time.Second

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check the portal in a loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return apperr.Wrap(apperr.ConfigFatal, "load config", err)
			}
			if err := cfg.Validate(); err != nil {
				return apperr.Wrap(apperr.ConfigFatal, "validate config", err)
			}

			logger, err := logging.New(cfg.Log.File, cfg.Log.Level)
			if err != nil {
				return apperr.Wrap(apperr.ConfigFatal, "open log", err)
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runMonitor(ctx, cfg, logger.Logger)
		},
	}
}

func runMonitor(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	setTimezone(cfg.Timezone, logger)

	var (
		sender notifier.Sender = notifier.LogSender{Logger: logger}
		bot    *tgbotapi.BotAPI
		err    error
	)
	if cfg.Telegram.Enabled() {
		bot, err = notifier.NewTelegramBot(cfg.Telegram.Token, cfg.Telegram.Endpoint, nil)
		if err != nil {
			return apperr.Wrap(apperr.ConfigFatal, "telegram auth", err)
		}
		logger.Info("🤖 authorized on account", "username", bot.Self.UserName)
		sender = notifier.NewTelegram(bot, cfg.Telegram.ChatID)
	} else {
		logger.Warn("⚠️ TELEGRAM_BOT_TOKEN not set, notifications go to the log only")
	}

	dispatcher := notifier.NewDispatcher(sender, logger)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := dispatcher.Close(drainCtx); err != nil {
			logger.Warn("⚠️ notifications left undelivered", "error", err)
		}
	}()

	// хранилище открывается после диспетчера: оператор узнает и о недоступном Redis
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("❌ cannot open state store", "error", err)
		dispatcher.Notify(checker.ErrorMessage(err))
		return err
	}
	defer closeStore()

	portalOpts := parser.Options{
		BaseURL: cfg.Portal.BaseURL,
		Module:  cfg.Portal.Module,
		Region:  cfg.Portal.Region,
		Credentials: parser.Credentials{
			RUN:      cfg.Portal.RUN,
			Password: cfg.Portal.Password,
		},
		Timeout:  cfg.Portal.Timeout,
		MinDelay: 500 * time.Millisecond,
		MaxDelay: 1500 * time.Millisecond,
		Logger:   logger,
	}
	openSession := func(ctx context.Context) (checker.Session, error) {
		p, err := parser.Open(ctx, portalOpts)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	checkerService := checker.New(store, dispatcher, openSession, checker.Config{
		Offices:      cfg.Search.Offices,
		DaysToSearch: cfg.Search.DaysToSearch,
		WaitTime:     cfg.Search.WaitTime,
		RolloverYear: cfg.Search.RolloverYear,
	}, logger)

	if bot != nil {
		handler := handlers.New(bot, store, checkerService, cfg.Telegram.ChatID, logger)
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := bot.GetUpdatesChan(u)
		go handler.Serve(ctx, updates)
		defer bot.StopReceivingUpdates()
	}

	logger.Info("✅ appointment watcher is running", "offices", cfg.Search.Offices, "region", cfg.Portal.Region)
	return checkerService.Run(ctx)
}

// setTimezone фиксирует часовой пояс портала: "сегодня" и даты слотов считаются в нём.
func setTimezone(name string, logger *slog.Logger) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("⚠️ failed to load timezone, using local", "timezone", name, "error", err)
		return
	}
	time.Local = loc
	logger.Info("🌍 timezone set", "timezone", name, "now", time.Now().Format("2006-01-02 15:04:05 MST"))
}
