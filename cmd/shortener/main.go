package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/bot"
	"github.com/vkarpenko/telelink/internal/config"
	"github.com/vkarpenko/telelink/internal/handler"
	"github.com/vkarpenko/telelink/internal/middleware"
	"github.com/vkarpenko/telelink/internal/repository"
	"github.com/vkarpenko/telelink/internal/service"
)

// store is what both repository implementations provide.
type store interface {
	repository.LinkRepository
	repository.BotUserRepository
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.ParseFlags()
	if err != nil {
		sugar.Fatalw("Configuration error", "error", err.Error())
	}

	sugar.Infow("Configuration loaded",
		"server_address", cfg.ServerAddress,
		"base_url", cfg.BaseURL,
		"database_configured", cfg.DatabaseDSN != "",
		"telegram_configured", cfg.TelegramBotToken != "",
		"telegram_webhook", cfg.TelegramUseWebhook,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo store = repository.NewMemoryRepository()
	if cfg.DatabaseDSN != "" {
		pgRepo, pgErr := repository.NewPostgresRepository(cfg.DatabaseDSN, logger)
		if pgErr != nil {
			logger.Error("Failed to connect to PostgreSQL, using in-memory store", zap.Error(pgErr))
		} else {
			repo = pgRepo
		}
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Error closing store", zap.Error(err))
		}
	}()

	svc := service.NewShortenerService(cfg.BaseURL, repo, repo, repo, logger)

	var dispatcher *bot.Dispatcher
	if cfg.TelegramBotToken != "" {
		tg, tgErr := bot.NewTelegram(cfg.TelegramBotToken, logger)
		if tgErr != nil {
			sugar.Fatalw("Failed to initialize telegram bot", "error", tgErr.Error())
		}

		dispatcher = bot.NewDispatcher(svc, tg, logger)

		notifier := bot.NewNotifier(repo, tg, logger)
		go func() {
			if err := notifier.Run(ctx); err != nil {
				logger.Error("Premium change notifier failed", zap.Error(err))
			}
		}()

		if !cfg.TelegramUseWebhook {
			tg.Attach(dispatcher)
			go tg.Start(ctx)
		}
	}

	h := handler.NewHandler(svc, dispatcher, logger)
	auth := middleware.NewAuthMiddleware(cfg.SecretKey, logger)

	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: h.SetupRouter(auth),
	}

	go func() {
		sugar.Infow("Server starting", "address", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw(err.Error(), "event", "start server")
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Shut down gracefully")
}
