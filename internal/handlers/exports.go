package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/finance-tracker-bot/backend/internal/auth"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/report"
)

const (
	exportFormatCSV  = "csv"
	exportFormatXLSX = "xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type TransactionSource interface {
	Transactions(ctx context.Context, userID int64) ([]models.Transaction, error)
}

type ExportRequest struct {
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
}

type ExportHandler struct {
	Transactions TransactionSource
	Reports      *report.Builder
	Logger       *slog.Logger
	Now          func() time.Time
}

// NewExportHandler создает обработчик выгрузки транзакций.
func NewExportHandler(transactions TransactionSource, reports *report.Builder, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{
		Transactions: transactions,
		Reports:      reports,
		Logger:       logger,
		Now:          time.Now,
	}
}

// Export выгружает все транзакции владельца токена в CSV или XLSX.
func (h *ExportHandler) Export(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req ExportRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return badRequest(c, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "format must be csv or xlsx")
	}

	format := req.Format
	if format == "" {
		format = exportFormatCSV
	}

	rows, err := h.Transactions.Transactions(c.Request().Context(), userID)
	if err != nil {
		h.Logger.Error("export load transactions failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return serverError(c)
	}

	var buf bytes.Buffer
	contentType := contentTypeCSV

	switch format {
	case exportFormatXLSX:
		contentType = contentTypeXLSX
		err = h.Reports.WriteXLSX(&buf, rows)
	default:
		err = h.Reports.WriteCSV(&buf, rows)
	}
	if err != nil {
		h.Logger.Error("export render failed",
			slog.Int64("user_id", userID),
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
		return serverError(c)
	}

	filename := "transactions-" + h.Now().Format("20060102") + "." + format
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}
