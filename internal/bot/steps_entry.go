package bot

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func (r *Router) entryWizard() *wizard {
	return &wizard{
		name:  wizardEntry,
		first: stepCategory,
		steps: map[stepName]stepDef{
			stepCategory: {
				prompt: func(c *conversation) Reply {
					return Reply{Text: "Enter category for " + entryKindLabel(c.entry.Kind) + ":"}
				},
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					c.entry.Category = strings.TrimSpace(input)
					return advance(stepAmount)
				},
			},
			stepAmount: {
				prompt: staticPrompt("Enter amount:"),
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					amount, ok := parseAmount(input)
					if !ok {
						return r.retry(c, msgInvalidNumber)
					}
					c.entry.Amount = amount
					return advance(stepWallet)
				},
			},
			stepWallet: {
				prompt: staticPrompt("Enter wallet (e.g., UPI, Cash):"),
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					c.entry.Wallet = strings.TrimSpace(input)
					return advance(stepNote)
				},
			},
			stepNote: {
				prompt: staticPrompt("Optional note (or type 'skip'):"),
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					note := strings.TrimSpace(input)
					if strings.EqualFold(note, "skip") {
						note = ""
					}
					c.entry.Note = note
					return advance(stepDate)
				},
			},
			stepDate: {
				prompt: staticPrompt("Enter Date (YYYY-MM-DD) or type 'today':"),
				handle: r.handleEntryDate,
			},
		},
	}
}

func (r *Router) handleEntryDate(ctx context.Context, ev Event, c *conversation, input string) outcome {
	date, ok := r.parser.ParseDateInput(input)
	if !ok {
		return r.retry(c, msgInvalidDate)
	}
	c.entry.Date = &date

	txn, err := r.ledger.RecordEntry(ctx, ev.UserID, c.entry)
	if err != nil {
		r.storageFailure(ev, "record entry", err)
		return finish(Reply{Text: msgSaveFailed})
	}

	text := formatWizardSaved(c.entry.Kind, txn)
	if !txn.IsIncome() {
		text += r.defaultBudgetLine(ctx, ev)
	}

	return finish(Reply{Text: text})
}

func staticPrompt(text string) func(*conversation) Reply {
	return func(*conversation) Reply {
		return Reply{Text: text}
	}
}

// parseAmount accepts any finite float the way the quick-entry grammar does.
func parseAmount(input string) (decimal.Decimal, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(value), true
}
