package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/parser"
)

var (
	deleteTransactionPhrase = regexp.MustCompile(`(?i)^delete\s+transaction\s+(\d+)\.?$`)
	showBudgetPhrase        = regexp.MustCompile(`(?i)^show\s+budget\s+(\d+)\.?$`)
	listBudgetsPhrase       = regexp.MustCompile(`(?i)^show\s+budgets\.?$`)
)

// handleFreeForm tries the one-line grammars in priority order: update, quick entry, phrases, views.
func (r *Router) handleFreeForm(ctx context.Context, ev Event, text string) {
	lower := strings.ToLower(text)

	if strings.HasPrefix(lower, "update transaction") {
		r.handleUpdatePhrase(ctx, ev, text)
		return
	}

	if entry, ok := r.parser.ParseQuickEntry(text); ok {
		r.recordQuickEntry(ctx, ev, entry)
		return
	}

	if m := deleteTransactionPhrase.FindStringSubmatch(text); m != nil {
		r.startWizardWithInput(ctx, ev, wizardDelete, &conversation{}, m[1])
		return
	}

	if m := showBudgetPhrase.FindStringSubmatch(text); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			r.showBudget(ctx, ev, id)
			return
		}
	}

	if listBudgetsPhrase.MatchString(text) {
		r.listBudgets(ctx, ev)
		return
	}

	if strings.HasPrefix(lower, string(parser.VerbShow)) || strings.HasPrefix(lower, string(parser.VerbGenerate)) {
		r.handleView(ctx, ev, text)
		return
	}

	r.send(ctx, ev, Reply{Text: msgUnrecognized})
}

func (r *Router) handleUpdatePhrase(ctx context.Context, ev Event, text string) {
	cmd, ok := r.parser.ParseUpdate(text)
	if !ok || (cmd.HasBody && cmd.Entry == nil) {
		r.send(ctx, ev, Reply{Text: msgUpdateBadFormat, Markdown: true})
		return
	}

	if !cmd.HasBody {
		r.startWizardWithInput(ctx, ev, wizardUpdate, &conversation{}, strconv.FormatInt(cmd.ID, 10))
		return
	}

	if cmd.Entry.InvalidDate != "" {
		r.send(ctx, ev, Reply{Text: fmt.Sprintf(msgNoSuchDate, cmd.Entry.InvalidDate)})
		return
	}

	entry := entryFromQuick(*cmd.Entry)
	txn, err := r.ledger.UpdateEntry(ctx, ev.UserID, cmd.ID, entry)
	switch {
	case ledger.IsNotFound(err):
		r.send(ctx, ev, Reply{Text: msgTxnNotFound})
	case err != nil:
		r.storageFailure(ev, "update transaction", err)
		r.send(ctx, ev, Reply{Text: msgUpdateFailed})
	default:
		r.send(ctx, ev, Reply{Text: formatQuickSaved("Updated", txn), Markdown: true})
	}
}

func (r *Router) recordQuickEntry(ctx context.Context, ev Event, parsed parser.QuickEntry) {
	if parsed.InvalidDate != "" {
		r.send(ctx, ev, Reply{Text: fmt.Sprintf(msgNoSuchDate, parsed.InvalidDate)})
		return
	}

	txn, err := r.ledger.RecordEntry(ctx, ev.UserID, entryFromQuick(parsed))
	if err != nil {
		r.storageFailure(ev, "record quick entry", err)
		r.send(ctx, ev, Reply{Text: msgQuickSaveFail})
		return
	}

	text := formatQuickSaved("Saved", txn)
	if !txn.IsIncome() {
		text += r.defaultBudgetLine(ctx, ev)
	}

	r.send(ctx, ev, Reply{Text: text, Markdown: true})
}

func (r *Router) handleView(ctx context.Context, ev Event, text string) {
	query, ok := r.parser.ParseView(text)
	if !ok {
		r.send(ctx, ev, Reply{Text: msgViewHint, Markdown: true})
		return
	}

	result, err := r.ledger.View(ctx, ev.UserID, query)
	if err != nil {
		r.storageFailure(ev, "view transactions", err)
		r.send(ctx, ev, Reply{Text: msgViewFailed})
		return
	}

	if len(result.Transactions) == 0 {
		r.send(ctx, ev, Reply{Text: msgNoTransactions})
		return
	}

	if query.Verb == parser.VerbGenerate {
		r.sendReport(ctx, ev, result)
		return
	}

	r.send(ctx, ev, Reply{Text: formatView(result), Markdown: true})
}

func (r *Router) sendReport(ctx context.Context, ev Event, result models.ViewResult) {
	if r.reports == nil {
		r.send(ctx, ev, Reply{Text: msgReportFailed})
		return
	}

	data, err := r.reports.Spreadsheet(result)
	if err != nil {
		r.logger.Error("build spreadsheet failed",
			slog.Int64("user_id", ev.UserID),
			slog.String("error", err.Error()),
		)
		r.send(ctx, ev, Reply{Text: msgReportFailed})
		return
	}

	doc := Document{
		Name:    "transactions-" + displayDate(r.parser.Now()) + ".xlsx",
		Data:    data,
		Caption: fmt.Sprintf("📊 %d transactions", len(result.Transactions)),
	}

	if err := r.messenger.SendDocument(ctx, ev.ChatID, doc); err != nil {
		r.logger.Error("send document failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.String("error", err.Error()),
		)
		r.send(ctx, ev, Reply{Text: msgReportFailed})
	}
}
