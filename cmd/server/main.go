package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/finance-tracker-bot/backend/internal/auth"
	"example.com/finance-tracker-bot/backend/internal/bot"
	"example.com/finance-tracker-bot/backend/internal/config"
	"example.com/finance-tracker-bot/backend/internal/database"
	"example.com/finance-tracker-bot/backend/internal/dispatch"
	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/parser"
	"example.com/finance-tracker-bot/backend/internal/report"
	"example.com/finance-tracker-bot/backend/internal/repository"
	"example.com/finance-tracker-bot/backend/internal/scheduler"
	"example.com/finance-tracker-bot/backend/internal/server"
	"example.com/finance-tracker-bot/backend/internal/telegram"
)

func main() {
	ensureEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Bot.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	migration, err := database.Migrate(cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("database migrated",
		slog.Uint64("from_version", uint64(migration.FromVersion)),
		slog.Uint64("to_version", uint64(migration.ToVersion)),
	)

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	loc := cfg.Bot.Location
	ledgerService := ledger.NewService(
		repository.NewTransactionRepository(db),
		repository.NewBudgetRepository(db),
		loc,
		time.Now,
	)

	client, err := telegram.New(cfg.Bot, logger)
	if err != nil {
		logger.Error("failed to connect to telegram", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reports := report.NewBuilder(loc)
	tokens := auth.NewTokenManager(cfg.Export.Secret, cfg.Export.Issuer, cfg.Export.TokenTTL, cfg.Export.PublicURL)

	router := bot.NewRouter(bot.Deps{
		Ledger:             ledgerService,
		Messenger:          client,
		Parser:             parser.New(loc, time.Now),
		Reports:            reports,
		Exports:            tokens,
		Logger:             logger,
		SessionIdleTimeout: cfg.Bot.SessionIdleTimeout,
		Now:                time.Now,
	})

	dispatcher := dispatch.New(router, cfg.Dispatch.Workers, cfg.Dispatch.QueueSize, logger)
	dispatcher.Start(ctx)

	jobs, err := scheduler.New(cfg.Scheduler, loc, scheduler.Deps{
		Notifier: client,
		Budgets:  ledgerService,
		Sessions: router,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to configure scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	jobs.Start()

	e := server.New(cfg, logger, server.Deps{
		DB:           db,
		Queue:        dispatcher,
		Transactions: ledgerService,
		Reports:      reports,
		Tokens:       tokens,
	})
	httpServer := server.NewHTTPServer(cfg.Server, e)

	go func() {
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	if cfg.Bot.UsesWebhook() {
		if err := client.RegisterWebhook(ctx, cfg.Bot.WebhookURL+cfg.Bot.WebhookPath, cfg.Bot.WebhookSecret); err != nil {
			logger.Error("failed to register webhook", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		go func() {
			err := client.Poll(ctx, func(ev bot.Event) {
				if err := dispatcher.Enqueue(ev); err != nil {
					logger.Warn("update dropped",
						slog.Int64("chat_id", ev.ChatID),
						slog.String("error", err.Error()),
					)
				}
			})
			if err != nil {
				logger.Error("long polling stopped", slog.String("error", err.Error()))
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}

	dispatcher.Stop()

	if err := jobs.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown failed", slog.String("error", err.Error()))
	}
}

func ensureEnvFile() {
	if os.Getenv("ENV_FILE") != "" {
		return
	}

	if _, err := os.Stat(".env"); err == nil {
		_ = os.Setenv("ENV_FILE", ".env")
		return
	}

	if _, err := os.Stat("../.env"); err == nil {
		_ = os.Setenv("ENV_FILE", "../.env")
	}
}
