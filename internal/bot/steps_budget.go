package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/parser"
)

const pickButtonsPerRow = 2

func (r *Router) budgetWizard() *wizard {
	return &wizard{
		name:  wizardBudget,
		first: stepStartDate,
		steps: map[stepName]stepDef{
			stepStartDate: {
				prompt: staticPrompt("📅 Enter budget start date (YYYY-MM-DD) or type 'today':"),
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					date, ok := r.parser.ParseDateInput(input)
					if !ok {
						return r.retry(c, msgInvalidDate)
					}
					c.budget.StartDate = parser.StartOfDay(date)
					return advance(stepEndDate)
				},
			},
			stepEndDate: {
				prompt: staticPrompt("📅 Enter budget end date (YYYY-MM-DD):"),
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					date, ok := r.parser.ParseDateInput(input)
					if !ok {
						return r.retry(c, msgInvalidDate)
					}
					end := parser.StartOfDay(date)
					if !end.After(c.budget.StartDate) {
						return r.retry(c, msgEndBeforeStart)
					}
					c.budget.EndDate = end
					return advance(stepWalletPick)
				},
			},
			stepWalletPick: {
				buttons: callbackPickPrefix,
				prepare: func(ctx context.Context, ev Event, c *conversation) error {
					wallets, err := r.ledger.Wallets(ctx, ev.UserID)
					c.options = wallets
					return err
				},
				prompt: func(c *conversation) Reply {
					return pickPrompt("💳 Choose wallets for this budget.", c.options, c.budget.Wallets)
				},
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					return r.handlePick(c, input, &c.budget.Wallets, &c.budget.AllWallets, stepCategoryPick)
				},
			},
			stepCategoryPick: {
				buttons: callbackPickPrefix,
				prepare: func(ctx context.Context, ev Event, c *conversation) error {
					categories, err := r.ledger.Categories(ctx, ev.UserID)
					c.options = categories
					return err
				},
				prompt: func(c *conversation) Reply {
					return pickPrompt("📂 Choose categories for this budget.", c.options, c.budget.Categories)
				},
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					return r.handlePick(c, input, &c.budget.Categories, &c.budget.AllCategories, stepBudgetAmount)
				},
			},
			stepBudgetAmount: {
				prompt: staticPrompt("🎯 Enter budget amount:"),
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					amount, ok := parseAmount(input)
					if !ok {
						return r.retry(c, msgInvalidNumber)
					}
					if !amount.IsPositive() {
						return r.retry(c, msgPositiveAmount)
					}
					c.budget.Amount = amount.Round(2)
					return advance(stepDefault)
				},
			},
			stepDefault: {
				buttons: callbackConfirmPrefix,
				prompt: func(c *conversation) Reply {
					return Reply{
						Text:     formatBudgetDraft(c.budget) + "\n\n⭐ Make this your default budget?",
						Keyboard: confirmKeyboard(),
					}
				},
				handle: r.handleBudgetDefault,
			},
		},
	}
}

func (r *Router) handleBudgetDefault(ctx context.Context, ev Event, c *conversation, input string) outcome {
	switch {
	case isConfirmation(input):
		c.budget.IsDefault = true
	case isRefusal(input):
		c.budget.IsDefault = false
	default:
		return r.retry(c, msgYesOrNo)
	}

	budget, err := r.ledger.CreateBudget(ctx, ev.UserID, c.budget)
	switch {
	case errors.Is(err, ledger.ErrInvalid):
		return finish(Reply{Text: "❌ " + err.Error()})
	case err != nil:
		r.storageFailure(ev, "create budget", err)
		return finish(Reply{Text: msgBudgetFailed})
	}

	status, err := r.ledger.BudgetStatus(ctx, budget)
	if err != nil {
		r.storageFailure(ev, "budget status", err)
		return finish(Reply{Text: fmt.Sprintf("✅ Budget %d created.", budget.ID)})
	}

	return finish(Reply{Text: "✅ Budget created.\n\n" + formatBudgetDetails(status), Markdown: true})
}

// handlePick applies one selection to a wallet or category accumulator and re-enters the step.
func (r *Router) handlePick(c *conversation, input string, selected *[]string, all *bool, next stepName) outcome {
	input = strings.TrimSpace(input)

	switch strings.ToLower(input) {
	case callbackPickDone, "done":
		if len(*selected) == 0 {
			return r.retry(c, msgPickAtLeastOne)
		}
		return advance(next)
	case callbackPickAll, "all":
		*all = true
		*selected = nil
		return advance(next)
	}

	label := input
	if strings.HasPrefix(input, callbackPickPrefix) {
		idx, err := strconv.Atoi(strings.TrimPrefix(input, callbackPickPrefix))
		if err != nil || idx < 0 || idx >= len(c.options) {
			return r.retry(c, msgUnknownOption)
		}
		label = c.options[idx]
	} else {
		for _, option := range c.options {
			if strings.EqualFold(option, input) {
				label = option
				break
			}
		}
	}

	if label == "" {
		return r.retry(c, msgPickAtLeastOne)
	}

	if !containsFold(*selected, label) {
		*selected = append(*selected, label)
	}

	return advance(c.step)
}

func pickPrompt(title string, options, selected []string) Reply {
	keyboard := make(Keyboard, 0, len(options)/pickButtonsPerRow+2)

	var row []Button
	for i, option := range options {
		text := option
		if containsFold(selected, option) {
			text = "✔️ " + option
		}
		row = append(row, Button{Text: text, Data: callbackPickPrefix + strconv.Itoa(i)})
		if len(row) == pickButtonsPerRow {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard, []Button{
		{Text: "🌐 All", Data: callbackPickAll},
		{Text: "✅ Done", Data: callbackPickDone},
	})

	text := title + " Tap options or type names, then Done."
	if len(selected) > 0 {
		text += "\nSelected: " + strings.Join(selected, ", ")
	}

	return Reply{Text: text, Keyboard: keyboard}
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func (r *Router) budgetDeleteWizard() *wizard {
	return &wizard{
		name:  wizardBudgetDelete,
		first: stepTargetID,
		steps: map[stepName]stepDef{
			stepTargetID: {
				prompt: staticPrompt("Enter ID of the budget you want to delete:"),
				handle: func(ctx context.Context, ev Event, c *conversation, input string) outcome {
					id, ok := parseID(input)
					if !ok {
						return r.retry(c, msgInvalidID)
					}

					budget, err := r.ledger.GetBudget(ctx, ev.UserID, id)
					switch {
					case ledger.IsNotFound(err):
						return finish(Reply{Text: msgBudgetNotFound})
					case err != nil:
						r.storageFailure(ev, "get budget", err)
						return finish(Reply{Text: msgBudgetFetchFailed})
					}

					c.targetID = id
					return advanceWith(stepConfirm, Reply{
						Text: fmt.Sprintf("🗑️ Delete budget %d (%s → %s, target %s)?",
							budget.ID, displayDate(budget.StartDate), displayDate(budget.EndDate), moneyFixed(budget.Amount)),
						Keyboard: confirmKeyboard(),
					})
				},
			},
			stepConfirm: {
				buttons: callbackConfirmPrefix,
				prompt: func(*conversation) Reply {
					return Reply{Text: "🗑️ Delete this budget? Reply 'yes' to confirm.", Keyboard: confirmKeyboard()}
				},
				handle: func(ctx context.Context, ev Event, c *conversation, input string) outcome {
					if !isConfirmation(input) {
						return finish(Reply{Text: msgBudgetDeleteCanceled})
					}

					err := r.ledger.DeleteBudget(ctx, ev.UserID, c.targetID)
					switch {
					case ledger.IsNotFound(err):
						return finish(Reply{Text: msgBudgetNotFound})
					case err != nil:
						r.storageFailure(ev, "delete budget", err)
						return finish(Reply{Text: msgBudgetDeleteFailed})
					}

					return finish(Reply{Text: msgBudgetDeleted})
				},
			},
		},
	}
}
