package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"example.com/finance-tracker-bot/backend/internal/auth"
	"example.com/finance-tracker-bot/backend/internal/bot"
	"example.com/finance-tracker-bot/backend/internal/dispatch"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/report"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Enqueue(ev bot.Event) error {
	return m.Called(ev).Error(0)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	args := m.Called(ctx, userID)
	rows, _ := args.Get(0).([]models.Transaction)
	return rows, args.Error(1)
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

const messageUpdate = `{"update_id":10,"message":{"message_id":5,"from":{"id":1001,"is_bot":false,"first_name":"A"},"chat":{"id":1001,"type":"private"},"date":1750064400,"text":"Food 250 UPI"}}`

func postUpdate(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Receive(newEcho().NewContext(req, rec)))
	return rec
}

// TestWebhookEnqueuesMessage проверяет постановку сообщения в очередь.
func TestWebhookEnqueuesMessage(t *testing.T) {
	queue := &mockQueue{}
	queue.On("Enqueue", bot.Event{ChatID: 1001, UserID: 1001, Text: "Food 250 UPI"}).Return(nil).Once()

	rec := postUpdate(t, NewWebhookHandler(queue, quietLogger()), messageUpdate)

	assert.Equal(t, http.StatusOK, rec.Code)
	queue.AssertExpectations(t)
}

// TestWebhookIgnoresUnsupportedUpdate проверяет пропуск обновлений без текста.
func TestWebhookIgnoresUnsupportedUpdate(t *testing.T) {
	queue := &mockQueue{}

	rec := postUpdate(t, NewWebhookHandler(queue, quietLogger()), `{"update_id":11,"edited_message":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything)
}

// TestWebhookQueueFull проверяет ответ 503 при переполненной очереди.
func TestWebhookQueueFull(t *testing.T) {
	queue := &mockQueue{}
	queue.On("Enqueue", mock.Anything).Return(dispatch.ErrQueueFull).Once()

	rec := postUpdate(t, NewWebhookHandler(queue, quietLogger()), messageUpdate)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// TestWebhookBadPayload проверяет отказ на неразборчивом теле.
func TestWebhookBadPayload(t *testing.T) {
	rec := postUpdate(t, NewWebhookHandler(&mockQueue{}, quietLogger()), `{"update_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func exportRows() []models.Transaction {
	return []models.Transaction{
		{
			ID:        3,
			UserID:    1001,
			Category:  "Food",
			Amount:    decimal.RequireFromString("-250"),
			Wallet:    "UPI",
			CreatedAt: time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC),
		},
	}
}

func newExportHandler(source TransactionSource) *ExportHandler {
	h := NewExportHandler(source, report.NewBuilder(time.UTC), quietLogger())
	h.Now = func() time.Time { return time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC) }
	return h
}

func runExport(t *testing.T, h *ExportHandler, tokens *auth.TokenManager, userID int64, query string) *httptest.ResponseRecorder {
	t.Helper()

	token, _, err := tokens.NewExportToken(userID)
	require.NoError(t, err)

	target := auth.ExportPath + "?token=" + url.QueryEscape(token)
	if query != "" {
		target += "&" + query
	}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()

	handler := auth.ExportTokenMiddleware(tokens)(h.Export)
	require.NoError(t, handler(newEcho().NewContext(req, rec)))
	return rec
}

// TestExportCSV проверяет выгрузку CSV для владельца токена.
func TestExportCSV(t *testing.T) {
	source := &mockSource{}
	source.On("Transactions", mock.Anything, int64(1001)).Return(exportRows(), nil).Once()

	tokens := auth.NewTokenManager("secret", "test", time.Minute, "")
	rec := runExport(t, newExportHandler(source), tokens, 1001, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeCSV, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "transactions-20250616.csv")
	assert.Contains(t, rec.Body.String(), "3,2025-06-16 09:00,expense,Food,-250.00,UPI,")
	source.AssertExpectations(t)
}

// TestExportXLSX проверяет выгрузку XLSX.
func TestExportXLSX(t *testing.T) {
	source := &mockSource{}
	source.On("Transactions", mock.Anything, int64(1001)).Return(exportRows(), nil).Once()

	tokens := auth.NewTokenManager("secret", "test", time.Minute, "")
	rec := runExport(t, newExportHandler(source), tokens, 1001, "format=xlsx")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get(echo.HeaderContentType))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue(report.SheetName, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Food", value)
}

// TestExportOwnerIsolation проверяет, что токен владельца читает только его данные.
func TestExportOwnerIsolation(t *testing.T) {
	source := &mockSource{}
	source.On("Transactions", mock.Anything, int64(2002)).Return([]models.Transaction{}, nil).Once()

	tokens := auth.NewTokenManager("secret", "test", time.Minute, "")
	rec := runExport(t, newExportHandler(source), tokens, 2002, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,date,type,category,amount,wallet,note\n", rec.Body.String())
	source.AssertNotCalled(t, "Transactions", mock.Anything, int64(1001))
	source.AssertExpectations(t)
}

// TestExportBadFormat проверяет отказ на неизвестном формате.
func TestExportBadFormat(t *testing.T) {
	source := &mockSource{}
	tokens := auth.NewTokenManager("secret", "test", time.Minute, "")

	rec := runExport(t, newExportHandler(source), tokens, 1001, "format=pdf")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	source.AssertNotCalled(t, "Transactions", mock.Anything, mock.Anything)
}

// TestExportStorageError проверяет ответ 500 при ошибке хранилища.
func TestExportStorageError(t *testing.T) {
	source := &mockSource{}
	source.On("Transactions", mock.Anything, int64(1001)).Return(nil, errors.New("db down")).Once()

	tokens := auth.NewTokenManager("secret", "test", time.Minute, "")
	rec := runExport(t, newExportHandler(source), tokens, 1001, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// TestHealth проверяет статус с доступной и недоступной базой.
func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		pinger Pinger
		status int
	}{
		{name: "ok", pinger: stubPinger{}, status: http.StatusOK},
		{name: "db down", pinger: stubPinger{err: errors.New("refused")}, status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()

			require.NoError(t, NewHealthHandler(tt.pinger).Health(newEcho().NewContext(req, rec)))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
