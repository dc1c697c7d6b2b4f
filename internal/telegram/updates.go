package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"example.com/finance-tracker-bot/backend/internal/bot"
)

const pollTimeoutSeconds = 60

var ErrNoBot = errors.New("bot api is not connected")

// ToEvent переводит обновление Telegram в событие роутера. Нетекстовые обновления пропускаются.
func ToEvent(update tgbotapi.Update) (bot.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		ev := bot.Event{CallbackID: cq.ID, Data: cq.Data}
		if cq.From != nil {
			ev.UserID = cq.From.ID
			ev.ChatID = cq.From.ID
		}
		if cq.Message != nil {
			ev.MessageID = cq.Message.MessageID
			if cq.Message.Chat != nil {
				ev.ChatID = cq.Message.Chat.ID
			}
		}
		return ev, ev.ChatID != 0
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return bot.Event{}, false
	}

	ev := bot.Event{ChatID: msg.Chat.ID, UserID: msg.Chat.ID, Text: msg.Text}
	if msg.From != nil {
		ev.UserID = msg.From.ID
	}

	return ev, true
}

// RegisterWebhook направляет обновления на публичный адрес с секретом в заголовке.
func (c *Client) RegisterWebhook(ctx context.Context, url, secret string) error {
	if c.bot == nil {
		return ErrNoBot
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)

	if _, err := c.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	c.logger.Info("telegram webhook registered", slog.String("url", url))
	return nil
}

// Poll читает обновления длинным опросом до отмены контекста.
func (c *Client) Poll(ctx context.Context, handle func(bot.Event)) error {
	if c.bot == nil {
		return ErrNoBot
	}

	if _, err := c.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	updates := c.bot.GetUpdatesChan(cfg)
	defer c.bot.StopReceivingUpdates()

	c.logger.Info("telegram long polling started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if ev, ok := ToEvent(update); ok {
				handle(ev)
			}
		}
	}
}
