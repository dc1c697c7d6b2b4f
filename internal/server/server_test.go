package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/finance-tracker-bot/backend/internal/auth"
	"example.com/finance-tracker-bot/backend/internal/bot"
	"example.com/finance-tracker-bot/backend/internal/config"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/report"
)

type recordingQueue struct {
	mu     sync.Mutex
	events []bot.Event
}

func (q *recordingQueue) Enqueue(ev bot.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
	return nil
}

type ownerSource struct {
	calls []int64
}

func (s *ownerSource) Transactions(_ context.Context, userID int64) ([]models.Transaction, error) {
	s.calls = append(s.calls, userID)
	return nil, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testConfig() config.Config {
	return config.Config{
		Bot: config.BotConfig{
			WebhookURL:                "https://bot.example.com",
			WebhookPath:               "/webhook",
			WebhookSecret:             "hook-secret",
			WebhookRateLimitPerMinute: 600,
			WebhookRateLimitBurst:     60,
		},
	}
}

func newTestServer(cfg config.Config) (http.Handler, *recordingQueue, *ownerSource, *auth.TokenManager) {
	queue := &recordingQueue{}
	source := &ownerSource{}
	tokens := auth.NewTokenManager("export-secret", "test", time.Minute, "https://bot.example.com")

	e := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{
		DB:           okPinger{},
		Queue:        queue,
		Transactions: source,
		Reports:      report.NewBuilder(time.UTC),
		Tokens:       tokens,
	})
	return e, queue, source, tokens
}

const update = `{"update_id":1,"message":{"message_id":2,"from":{"id":7,"is_bot":false,"first_name":"A"},"chat":{"id":7,"type":"private"},"date":0,"text":"/start"}}`

// TestWebhookRequiresSecret проверяет проверку секрета на маршруте вебхука.
func TestWebhookRequiresSecret(t *testing.T) {
	handler, queue, _, _ := newTestServer(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.WebhookSecretHeader, "hook-secret")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, queue.events, 1)
	assert.Equal(t, "/start", queue.events[0].Text)
}

// TestWebhookNotRoutedInPollingMode проверяет отсутствие маршрута без WEBHOOK_URL.
func TestWebhookNotRoutedInPollingMode(t *testing.T) {
	cfg := testConfig()
	cfg.Bot.WebhookURL = ""
	handler, _, _, _ := newTestServer(cfg)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(update))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestExportRoute проверяет маршрут выгрузки с токеном и без него.
func TestExportRoute(t *testing.T) {
	handler, _, source, tokens := newTestServer(testConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, auth.ExportPath, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	link, _, err := tokens.ExportLink(7)
	require.NoError(t, err)
	parsed, err := url.Parse(link)
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, parsed.RequestURI(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{7}, source.calls)
}

// TestHealthRoute проверяет маршрут проверки состояния.
func TestHealthRoute(t *testing.T) {
	handler, _, _, _ := newTestServer(testConfig())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())
}
