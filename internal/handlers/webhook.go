package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	"example.com/finance-tracker-bot/backend/internal/bot"
	"example.com/finance-tracker-bot/backend/internal/dispatch"
	"example.com/finance-tracker-bot/backend/internal/telegram"
)

type EventQueue interface {
	Enqueue(ev bot.Event) error
}

type WebhookHandler struct {
	Queue  EventQueue
	Logger *slog.Logger
}

// NewWebhookHandler создает обработчик входящих обновлений бота.
func NewWebhookHandler(queue EventQueue, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{Queue: queue, Logger: logger}
}

// Receive ставит обновление в очередь и сразу отвечает 200.
// При переполненной очереди отвечает 503, и Telegram повторит доставку.
func (h *WebhookHandler) Receive(c echo.Context) error {
	var update tgbotapi.Update
	if err := c.Bind(&update); err != nil {
		return badRequest(c, "invalid update payload")
	}

	ev, ok := telegram.ToEvent(update)
	if !ok {
		return c.NoContent(http.StatusOK)
	}

	if err := h.Queue.Enqueue(ev); err != nil {
		h.Logger.Warn("update rejected",
			slog.Int("update_id", update.UpdateID),
			slog.Int64("chat_id", ev.ChatID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, dispatch.ErrQueueFull) || errors.Is(err, dispatch.ErrStopped) {
			return unavailable(c)
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusOK)
}
