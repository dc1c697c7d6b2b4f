package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/parser"
)

const updateDataPrompt = "✏️ Now enter the updated transaction (like: `Food 1000 UPI Dinner`)"

func (r *Router) updateWizard() *wizard {
	return &wizard{
		name:  wizardUpdate,
		first: stepTargetID,
		steps: map[stepName]stepDef{
			stepTargetID: {
				prompt: staticPrompt("Enter ID of the transaction you want to update:"),
				handle: func(ctx context.Context, ev Event, c *conversation, input string) outcome {
					txn, stop := r.lookupTransaction(ctx, ev, c, input)
					if stop != nil {
						return *stop
					}
					return advanceWith(stepData, Reply{
						Text:     formatCurrent(txn) + "\n\n" + updateDataPrompt,
						Markdown: true,
					})
				},
			},
			stepData: {
				prompt: func(*conversation) Reply {
					return Reply{Text: updateDataPrompt, Markdown: true}
				},
				handle: func(_ context.Context, _ Event, c *conversation, input string) outcome {
					parsed, ok := r.parser.ParseQuickEntry(input)
					if !ok {
						return r.retry(c, msgInvalidFormat)
					}
					if parsed.InvalidDate != "" {
						return r.retry(c, fmt.Sprintf(msgNoSuchDate, parsed.InvalidDate))
					}
					entry := entryFromQuick(parsed)
					c.pending = &entry
					return advance(stepConfirm)
				},
			},
			stepConfirm: {
				buttons: callbackConfirmPrefix,
				prompt: func(*conversation) Reply {
					return Reply{
						Text:     "Are you sure you want to update this transaction? Reply with 'yes' to confirm or 'no' to cancel.",
						Keyboard: confirmKeyboard(),
					}
				},
				handle: func(ctx context.Context, ev Event, c *conversation, input string) outcome {
					if !isConfirmation(input) || c.pending == nil {
						return finish(Reply{Text: msgUpdateCancelled})
					}
					return finish(r.applyUpdate(ctx, ev, c.targetID, *c.pending))
				},
			},
		},
	}
}

func (r *Router) deleteWizard() *wizard {
	return &wizard{
		name:  wizardDelete,
		first: stepTargetID,
		steps: map[stepName]stepDef{
			stepTargetID: {
				prompt: staticPrompt("Enter ID of the transaction you want to delete:"),
				handle: func(ctx context.Context, ev Event, c *conversation, input string) outcome {
					txn, stop := r.lookupTransaction(ctx, ev, c, input)
					if stop != nil {
						return *stop
					}
					return advanceWith(stepConfirm, Reply{
						Text:     formatCurrent(txn) + "\n\n🗑️ Delete this transaction?",
						Markdown: true,
						Keyboard: confirmKeyboard(),
					})
				},
			},
			stepConfirm: {
				buttons: callbackConfirmPrefix,
				prompt: func(*conversation) Reply {
					return Reply{Text: "🗑️ Delete this transaction? Reply 'yes' to confirm.", Keyboard: confirmKeyboard()}
				},
				handle: func(ctx context.Context, ev Event, c *conversation, input string) outcome {
					if !isConfirmation(input) {
						return finish(Reply{Text: msgDeleteCancelled})
					}

					err := r.ledger.DeleteTransaction(ctx, ev.UserID, c.targetID)
					switch {
					case ledger.IsNotFound(err):
						return finish(Reply{Text: msgTxnNotFound})
					case err != nil:
						r.storageFailure(ev, "delete transaction", err)
						return finish(Reply{Text: msgDeleteFailed})
					}

					return finish(Reply{Text: fmt.Sprintf("🗑️ Transaction %d deleted.", c.targetID)})
				},
			},
		},
	}
}

// lookupTransaction resolves the ID step. A non-nil outcome means the wizard should stop or retry.
func (r *Router) lookupTransaction(ctx context.Context, ev Event, c *conversation, input string) (models.Transaction, *outcome) {
	id, ok := parseID(input)
	if !ok {
		out := r.retry(c, msgInvalidID)
		return models.Transaction{}, &out
	}

	txn, err := r.ledger.GetTransaction(ctx, ev.UserID, id)
	switch {
	case ledger.IsNotFound(err):
		out := finish(Reply{Text: msgTxnNotFound})
		return models.Transaction{}, &out
	case err != nil:
		r.storageFailure(ev, "get transaction", err)
		out := finish(Reply{Text: msgTxnFetchFailed})
		return models.Transaction{}, &out
	}

	c.targetID = id
	return txn, nil
}

func (r *Router) applyUpdate(ctx context.Context, ev Event, id int64, entry ledger.Entry) Reply {
	txn, err := r.ledger.UpdateEntry(ctx, ev.UserID, id, entry)
	switch {
	case ledger.IsNotFound(err):
		return Reply{Text: msgUpdateNotFound}
	case err != nil:
		r.storageFailure(ev, "update transaction", err)
		return Reply{Text: msgUpdateFailed}
	}

	return Reply{Text: formatQuickSaved("Updated", txn), Markdown: true}
}

func entryFromQuick(q parser.QuickEntry) ledger.Entry {
	return ledger.Entry{
		Category: q.Category,
		Amount:   decimal.NewFromFloat(q.Amount),
		Wallet:   q.Wallet,
		Note:     q.Note,
		Date:     q.Date,
	}
}

func parseID(input string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(input), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isConfirmation(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "y", "confirm", "yeah", callbackConfirmYes:
		return true
	default:
		return false
	}
}

func isRefusal(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "no", "n", "nope", callbackConfirmNo:
		return true
	default:
		return false
	}
}
