package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	ContextUserIDKey = "user_id"

	WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// WebhookSecretMiddleware отклоняет вебхуки без секрета, заданного при регистрации.
func WebhookSecretMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}

			if !SecretMatches(secret, c.Request().Header.Get(WebhookSecretHeader)) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook secret")
			}

			return next(c)
		}
	}
}

// ExportTokenMiddleware проверяет токен выгрузки из query или заголовка и сохраняет user_id в контексте.
func ExportTokenMiddleware(manager *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := strings.TrimSpace(c.QueryParam("token"))
			if tokenString == "" {
				parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = strings.TrimSpace(parts[1])
				}
			}

			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing export token")
			}

			userID, err := manager.ParseExportToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextUserIDKey, userID)
			return next(c)
		}
	}
}

// UserIDFromContext извлекает идентификатор владельца из контекста.
func UserIDFromContext(c echo.Context) (int64, bool) {
	userID, ok := c.Get(ContextUserIDKey).(int64)
	return userID, ok
}
