package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"example.com/finance-tracker-bot/backend/internal/bot"
	"example.com/finance-tracker-bot/backend/internal/config"
)

// MaxMessageLength is the Telegram limit for one text message, in characters.
const MaxMessageLength = 4096

var ErrMessageTooLong = errors.New("message too long to edit")

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client отправляет ответы бота через Telegram Bot API.
type Client struct {
	api     botAPI
	bot     *tgbotapi.BotAPI
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New подключается к Bot API и проверяет токен.
func New(cfg config.BotConfig, logger *slog.Logger) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	api.Debug = cfg.Debug

	client := newClient(api, cfg.TelegramRateLimitPerSecond, logger)
	client.bot = api

	logger.Info("telegram bot authorized", slog.String("username", api.Self.UserName))

	return client, nil
}

func newClient(api botAPI, perSecond int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if perSecond <= 0 {
		perSecond = 25
	}

	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		logger:  logger,
	}
}

// SendText отправляет ответ, разбивая длинный текст на части.
func (c *Client) SendText(ctx context.Context, chatID int64, reply bot.Reply) error {
	chunks := splitMessage(reply.Text, MaxMessageLength)

	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if i == len(chunks)-1 && len(reply.Keyboard) > 0 {
			msg.ReplyMarkup = inlineKeyboard(reply.Keyboard)
		}

		if err := c.sendWithFallback(ctx, &msg, &msg.ParseMode, reply.Markdown); err != nil {
			return err
		}
	}

	return nil
}

// EditText заменяет текст и кнопки ранее отправленного сообщения.
func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, reply bot.Reply) error {
	if utf8.RuneCountInString(reply.Text) > MaxMessageLength {
		return ErrMessageTooLong
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
	if len(reply.Keyboard) > 0 {
		markup := inlineKeyboard(reply.Keyboard)
		edit.ReplyMarkup = &markup
	}

	return c.sendWithFallback(ctx, &edit, &edit.ParseMode, reply.Markdown)
}

// AnswerCallback гасит индикатор загрузки на нажатой кнопке.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}

	return nil
}

// SendDocument отправляет файл в чат.
func (c *Client) SendDocument(ctx context.Context, chatID int64, doc bot.Document) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	upload := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Data})
	upload.Caption = doc.Caption

	if _, err := c.api.Send(upload); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	return nil
}

// sendWithFallback sends once with Markdown and, if Telegram rejects the entities, once more as plain text.
func (c *Client) sendWithFallback(ctx context.Context, msg tgbotapi.Chattable, parseMode *string, markdown bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if markdown {
		*parseMode = tgbotapi.ModeMarkdown
	}

	_, err := c.api.Send(msg)
	if err == nil {
		return nil
	}

	if !markdown || !isEntityError(err) {
		return fmt.Errorf("send message: %w", err)
	}

	c.logger.Warn("markdown rejected, resending as plain text", slog.String("error", err.Error()))
	*parseMode = ""

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send plain message: %w", err)
	}

	return nil
}

func isEntityError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 400 && strings.Contains(apiErr.Message, "parse entities")
	}
	return strings.Contains(err.Error(), "parse entities")
}

func inlineKeyboard(keyboard bot.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// splitMessage cuts text into pieces of at most limit runes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		lineLen := utf8.RuneCountInString(line)

		if currentLen+lineLen > limit {
			flush()
		}

		for lineLen > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			lineLen -= limit
		}

		current.WriteString(line)
		currentLen += lineLen
	}
	flush()

	return chunks
}
