package server

import (
	"github.com/labstack/echo/v4"

	"example.com/finance-tracker-bot/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	webhookPath string,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	exportHandler *handlers.ExportHandler,
	webhookSecret echo.MiddlewareFunc,
	webhookRateLimiter echo.MiddlewareFunc,
	exportToken echo.MiddlewareFunc,
) {
	e.GET("/health", healthHandler.Health)

	if webhookHandler != nil {
		e.POST(webhookPath, webhookHandler.Receive, webhookRateLimiter, webhookSecret)
	}

	api := e.Group("/api/v1")
	api.GET("/export/transactions", exportHandler.Export, exportToken)
}
