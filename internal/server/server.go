package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"example.com/finance-tracker-bot/backend/internal/auth"
	"example.com/finance-tracker-bot/backend/internal/config"
	"example.com/finance-tracker-bot/backend/internal/handlers"
	"example.com/finance-tracker-bot/backend/internal/report"
)

type Deps struct {
	DB           handlers.Pinger
	Queue        handlers.EventQueue
	Transactions handlers.TransactionSource
	Reports      *report.Builder
	Tokens       *auth.TokenManager
}

// New собирает HTTP-сервер Echo с роутами и зависимостями.
func New(cfg config.Config, logger *slog.Logger, deps Deps) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))

	healthHandler := handlers.NewHealthHandler(deps.DB)
	exportHandler := handlers.NewExportHandler(deps.Transactions, deps.Reports, logger)

	var webhookHandler *handlers.WebhookHandler
	if cfg.Bot.UsesWebhook() && deps.Queue != nil {
		webhookHandler = handlers.NewWebhookHandler(deps.Queue, logger)
	}

	registerRoutes(
		e,
		cfg.Bot.WebhookPath,
		healthHandler,
		webhookHandler,
		exportHandler,
		auth.WebhookSecretMiddleware(cfg.Bot.WebhookSecret),
		webhookRateLimiter(cfg.Bot),
		auth.ExportTokenMiddleware(deps.Tokens),
	)

	return e
}

// NewHTTPServer создает net/http сервер с заданными таймаутами.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURIPath:   true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			// URIPath keeps export tokens out of the log.
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
				slog.Duration("latency", v.Latency),
			}

			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}

			msg := "request completed"
			if v.Status >= http.StatusInternalServerError {
				logger.LogAttrs(c.Request().Context(), slog.LevelError, msg, attrs...)
				return nil
			}

			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, msg, attrs...)
			return nil
		},
	})
}

func webhookRateLimiter(cfg config.BotConfig) echo.MiddlewareFunc {
	limit := rate.Limit(float64(cfg.WebhookRateLimitPerMinute) / 60.0)
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     cfg.WebhookRateLimitBurst,
		ExpiresIn: time.Minute,
	})

	return middleware.RateLimiter(store)
}
