package bot

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/parser"
	"example.com/finance-tracker-bot/backend/internal/session"
)

// Ledger is the storage-facing surface the router needs.
type Ledger interface {
	RecordEntry(ctx context.Context, userID int64, entry ledger.Entry) (models.Transaction, error)
	UpdateEntry(ctx context.Context, userID, id int64, entry ledger.Entry) (models.Transaction, error)
	GetTransaction(ctx context.Context, userID, id int64) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	View(ctx context.Context, userID int64, query parser.ViewQuery) (models.ViewResult, error)
	Wallets(ctx context.Context, userID int64) ([]string, error)
	Categories(ctx context.Context, userID int64) ([]string, error)
	CreateBudget(ctx context.Context, userID int64, draft ledger.BudgetDraft) (models.Budget, error)
	GetBudget(ctx context.Context, userID, id int64) (models.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]models.Budget, error)
	DeleteBudget(ctx context.Context, userID, id int64) error
	BudgetStatus(ctx context.Context, budget models.Budget) (models.BudgetStatus, error)
	DefaultBudgetStatus(ctx context.Context, userID int64) (models.BudgetStatus, bool, error)
}

// Reporter renders a view result as a spreadsheet file.
type Reporter interface {
	Spreadsheet(result models.ViewResult) ([]byte, error)
}

// ExportLinker issues a signed download link for the owner's data.
type ExportLinker interface {
	ExportLink(userID int64) (string, time.Duration, error)
}

type Deps struct {
	Ledger    Ledger
	Messenger Messenger
	Parser    *parser.Parser
	Reports   Reporter
	Exports   ExportLinker
	Logger    *slog.Logger
	// SessionIdleTimeout drops a wizard left unanswered for longer than this.
	SessionIdleTimeout time.Duration
	Now                func() time.Time
}

type Router struct {
	ledger    Ledger
	messenger Messenger
	parser    *parser.Parser
	sessions  *session.Store[*conversation]
	reports   Reporter
	exports   ExportLinker
	logger    *slog.Logger
	wizards   map[wizardName]*wizard
}

const defaultSessionIdleTimeout = 15 * time.Minute

var (
	updateShortcut       = regexp.MustCompile(`^/update_(\d+)$`)
	deleteShortcut       = regexp.MustCompile(`^/delete_(\d+)$`)
	budgetShortcut       = regexp.MustCompile(`^/budget_(\d+)$`)
	deleteBudgetShortcut = regexp.MustCompile(`^/delete_budget_(\d+)$`)
)

// NewRouter создает роутер диалогов.
func NewRouter(deps Deps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	idleTimeout := deps.SessionIdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = defaultSessionIdleTimeout
	}

	r := &Router{
		ledger:    deps.Ledger,
		messenger: deps.Messenger,
		parser:    deps.Parser,
		sessions:  session.NewStore[*conversation](idleTimeout, deps.Now),
		reports:   deps.Reports,
		exports:   deps.Exports,
		logger:    logger,
	}
	r.wizards = r.buildWizards()

	return r
}

// Handle обрабатывает одно входящее событие до конца.
func (r *Router) Handle(ctx context.Context, ev Event) {
	if ev.IsCallback() {
		r.handleCallback(ctx, ev)
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	c, active := r.sessions.Get(sessionKey(ev))

	if strings.HasPrefix(text, "/") {
		r.handleCommand(ctx, ev, text, active)
		return
	}

	if active {
		r.runStep(ctx, ev, c, text)
		return
	}

	r.handleFreeForm(ctx, ev, text)
}

func (r *Router) handleCallback(ctx context.Context, ev Event) {
	if err := r.messenger.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
		r.logger.Warn("answer callback failed", slog.String("error", err.Error()))
	}

	c, active := r.sessions.Get(sessionKey(ev))
	if !active {
		r.send(ctx, ev, Reply{Text: msgExpired})
		return
	}

	if _, ok := r.wizards[c.wizard]; !ok {
		r.sessions.Delete(sessionKey(ev))
		r.send(ctx, ev, Reply{Text: msgExpired})
		return
	}

	value, ok := r.acceptCallback(c, ev.Data)
	if !ok {
		r.logger.Debug("stale callback refused",
			slog.Int64("chat_id", ev.ChatID),
			slog.String("step", stepScope(c)),
			slog.String("data", ev.Data),
		)
		out := r.retry(c, msgStaleButton)
		r.sessions.Put(sessionKey(ev), c)
		r.send(ctx, ev, scopeKeyboard(c, *out.reply))
		return
	}

	r.runStep(ctx, ev, c, value)
}

func (r *Router) handleCommand(ctx context.Context, ev Event, text string, active bool) {
	command := commandName(text)

	switch command {
	case "/cancel":
		if !active {
			r.send(ctx, ev, Reply{Text: msgNothingToCancel})
			return
		}
		r.sessions.Delete(sessionKey(ev))
		r.send(ctx, ev, Reply{Text: msgCancelled})
	case "/start":
		r.send(ctx, ev, Reply{Text: msgStart, Markdown: true})
	case "/help":
		r.send(ctx, ev, Reply{Text: msgHelp, Markdown: true})
	case "/inc":
		r.startWizard(ctx, ev, wizardEntry, &conversation{entry: ledger.Entry{Kind: models.EntryKindIncome}})
	case "/exp":
		r.startWizard(ctx, ev, wizardEntry, &conversation{entry: ledger.Entry{Kind: models.EntryKindExpense}})
	case "/update":
		r.startWizard(ctx, ev, wizardUpdate, &conversation{})
	case "/delete":
		r.startWizard(ctx, ev, wizardDelete, &conversation{})
	case "/budget":
		r.startWizard(ctx, ev, wizardBudget, &conversation{})
	case "/delete_budget":
		r.startWizard(ctx, ev, wizardBudgetDelete, &conversation{})
	case "/budgets":
		r.listBudgets(ctx, ev)
	case "/export":
		r.exportLink(ctx, ev)
	default:
		r.handleShortcut(ctx, ev, command)
	}
}

func (r *Router) handleShortcut(ctx context.Context, ev Event, command string) {
	if m := updateShortcut.FindStringSubmatch(command); m != nil {
		r.startWizardWithInput(ctx, ev, wizardUpdate, &conversation{}, m[1])
		return
	}

	if m := deleteShortcut.FindStringSubmatch(command); m != nil {
		r.startWizardWithInput(ctx, ev, wizardDelete, &conversation{}, m[1])
		return
	}

	if m := deleteBudgetShortcut.FindStringSubmatch(command); m != nil {
		r.startWizardWithInput(ctx, ev, wizardBudgetDelete, &conversation{}, m[1])
		return
	}

	if m := budgetShortcut.FindStringSubmatch(command); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			r.showBudget(ctx, ev, id)
			return
		}
	}

	r.send(ctx, ev, Reply{Text: msgUnknownCommand})
}

// commandName lowercases the first token and drops a "@botname" suffix.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	command := strings.ToLower(fields[0])
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}

	return command
}

func (r *Router) send(ctx context.Context, ev Event, reply Reply) {
	if err := r.messenger.SendText(ctx, ev.ChatID, reply); err != nil {
		r.logger.Error("send reply failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.String("error", err.Error()),
		)
	}
}

// edit rewrites the message that carried the pressed button, or sends a new one for text input.
func (r *Router) edit(ctx context.Context, ev Event, reply Reply) {
	if !ev.IsCallback() || ev.MessageID == 0 {
		r.send(ctx, ev, reply)
		return
	}

	if err := r.messenger.EditText(ctx, ev.ChatID, ev.MessageID, reply); err != nil {
		r.logger.Warn("edit reply failed, sending new message",
			slog.Int64("chat_id", ev.ChatID),
			slog.String("error", err.Error()),
		)
		r.send(ctx, ev, reply)
	}
}

func (r *Router) storageFailure(ev Event, action string, err error) {
	r.logger.Error(action+" failed",
		slog.Int64("user_id", ev.UserID),
		slog.Int64("chat_id", ev.ChatID),
		slog.String("error", err.Error()),
	)
}

// SweepSessions удаляет просроченные диалоги.
func (r *Router) SweepSessions() int {
	return r.sessions.Sweep()
}
