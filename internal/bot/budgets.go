package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"example.com/finance-tracker-bot/backend/internal/ledger"
)

func (r *Router) listBudgets(ctx context.Context, ev Event) {
	budgets, err := r.ledger.ListBudgets(ctx, ev.UserID)
	if err != nil {
		r.storageFailure(ev, "list budgets", err)
		r.send(ctx, ev, Reply{Text: msgBudgetFetchFailed})
		return
	}

	if len(budgets) == 0 {
		r.send(ctx, ev, Reply{Text: msgNoBudgets})
		return
	}

	lines := make([]string, 0, len(budgets)+1)
	lines = append(lines, "💰 Your budgets:")

	for _, budget := range budgets {
		status, err := r.ledger.BudgetStatus(ctx, budget)
		if err != nil {
			r.storageFailure(ev, "budget status", err)
			r.send(ctx, ev, Reply{Text: msgBudgetFetchFailed})
			return
		}

		line := fmt.Sprintf("/budget_%d %s", budget.ID, formatBudgetLine(status))
		if budget.IsDefault {
			line += " ⭐"
		}
		lines = append(lines, line)
	}

	r.send(ctx, ev, Reply{Text: strings.Join(lines, "\n\n")})
}

func (r *Router) showBudget(ctx context.Context, ev Event, id int64) {
	budget, err := r.ledger.GetBudget(ctx, ev.UserID, id)
	if err != nil {
		if ledger.IsNotFound(err) {
			r.send(ctx, ev, Reply{Text: msgBudgetNotFound})
			return
		}
		r.storageFailure(ev, "get budget", err)
		r.send(ctx, ev, Reply{Text: msgBudgetFetchFailed})
		return
	}

	status, err := r.ledger.BudgetStatus(ctx, budget)
	if err != nil {
		r.storageFailure(ev, "budget status", err)
		r.send(ctx, ev, Reply{Text: msgBudgetFetchFailed})
		return
	}

	r.send(ctx, ev, Reply{Text: formatBudgetDetails(status), Markdown: true})
}

// defaultBudgetLine returns the status suffix appended after an expense, or "" when there is no default budget.
func (r *Router) defaultBudgetLine(ctx context.Context, ev Event) string {
	status, ok, err := r.ledger.DefaultBudgetStatus(ctx, ev.UserID)
	if err != nil {
		r.logger.Warn("default budget status failed",
			slog.Int64("user_id", ev.UserID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	if !ok {
		return ""
	}

	return "\n\n" + formatBudgetLine(status)
}

func (r *Router) exportLink(ctx context.Context, ev Event) {
	if r.exports == nil {
		r.send(ctx, ev, Reply{Text: msgExportFailed})
		return
	}

	link, ttl, err := r.exports.ExportLink(ev.UserID)
	if err != nil {
		r.logger.Error("issue export link failed",
			slog.Int64("user_id", ev.UserID),
			slog.String("error", err.Error()),
		)
		r.send(ctx, ev, Reply{Text: msgExportFailed})
		return
	}

	r.send(ctx, ev, Reply{
		Text: fmt.Sprintf("📥 Download your transactions (link valid for %d minutes):\n%s", int(ttl.Minutes()), link),
	})
}
