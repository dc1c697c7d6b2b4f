package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/session"
)

type wizardName string

type stepName string

const (
	wizardEntry        wizardName = "entry"
	wizardUpdate       wizardName = "update"
	wizardDelete       wizardName = "delete"
	wizardBudget       wizardName = "budget"
	wizardBudgetDelete wizardName = "budget_delete"
)

const (
	stepDone stepName = ""

	stepCategory stepName = "category"
	stepAmount   stepName = "amount"
	stepWallet   stepName = "wallet"
	stepNote     stepName = "note"
	stepDate     stepName = "date"

	stepTargetID stepName = "target_id"
	stepData     stepName = "data"
	stepConfirm  stepName = "confirm"

	stepStartDate    stepName = "start_date"
	stepEndDate      stepName = "end_date"
	stepWalletPick   stepName = "wallet_pick"
	stepCategoryPick stepName = "category_pick"
	stepBudgetAmount stepName = "budget_amount"
	stepDefault      stepName = "default_choice"
)

// conversation is the scratch state of one wizard run.
type conversation struct {
	wizard wizardName
	step   stepName

	entry    ledger.Entry
	targetID int64
	pending  *ledger.Entry

	budget  ledger.BudgetDraft
	options []string
}

// outcome tells the router where a step handler wants to go next.
// A nil reply when advancing means "show the next step's prompt".
type outcome struct {
	next  stepName
	reply *Reply
}

type stepDef struct {
	// buttons is the callback prefix the step accepts; empty means text only.
	buttons string
	prompt  func(c *conversation) Reply
	prepare func(ctx context.Context, ev Event, c *conversation) error
	handle  func(ctx context.Context, ev Event, c *conversation, input string) outcome
}

type wizard struct {
	name  wizardName
	first stepName
	steps map[stepName]stepDef
}

func finish(reply Reply) outcome {
	return outcome{next: stepDone, reply: &reply}
}

func advance(next stepName) outcome {
	return outcome{next: next}
}

func advanceWith(next stepName, reply Reply) outcome {
	return outcome{next: next, reply: &reply}
}

// retry keeps the wizard on the current step and re-issues its prompt under an error line.
func (r *Router) retry(c *conversation, message string) outcome {
	prompt := r.wizards[c.wizard].steps[c.step].prompt(c)
	prompt.Text = message + "\n\n" + prompt.Text
	return outcome{next: c.step, reply: &prompt}
}

func (r *Router) startWizard(ctx context.Context, ev Event, name wizardName, c *conversation) {
	c.wizard = name
	r.enterStep(ctx, ev, c, r.wizards[name].first, nil)
}

// startWizardWithInput begins a wizard and feeds input to its first step right away.
func (r *Router) startWizardWithInput(ctx context.Context, ev Event, name wizardName, c *conversation, input string) {
	c.wizard = name
	c.step = r.wizards[name].first
	r.runStep(ctx, ev, c, input)
}

func (r *Router) runStep(ctx context.Context, ev Event, c *conversation, input string) {
	w, ok := r.wizards[c.wizard]
	if !ok {
		r.sessions.Delete(sessionKey(ev))
		return
	}

	def, ok := w.steps[c.step]
	if !ok {
		r.logger.Error("unknown wizard step", slog.String("wizard", string(c.wizard)), slog.String("step", string(c.step)))
		r.sessions.Delete(sessionKey(ev))
		return
	}

	out := def.handle(ctx, ev, c, input)

	switch out.next {
	case stepDone:
		r.sessions.Delete(sessionKey(ev))
		if out.reply != nil {
			r.edit(ctx, ev, *out.reply)
		}
	case c.step:
		r.sessions.Put(sessionKey(ev), c)
		reply := out.reply
		if reply == nil {
			prompt := def.prompt(c)
			reply = &prompt
		}
		r.edit(ctx, ev, scopeKeyboard(c, *reply))
	default:
		r.enterStep(ctx, ev, c, out.next, out.reply)
	}
}

func (r *Router) enterStep(ctx context.Context, ev Event, c *conversation, step stepName, reply *Reply) {
	def := r.wizards[c.wizard].steps[step]
	c.step = step

	if def.prepare != nil {
		if err := def.prepare(ctx, ev, c); err != nil {
			r.logger.Error("prepare wizard step failed",
				slog.String("wizard", string(c.wizard)),
				slog.String("step", string(step)),
				slog.Int64("user_id", ev.UserID),
				slog.String("error", err.Error()),
			)
			r.sessions.Delete(sessionKey(ev))
			r.send(ctx, ev, Reply{Text: msgGenericFailure})
			return
		}
	}

	r.sessions.Put(sessionKey(ev), c)

	if reply == nil {
		prompt := def.prompt(c)
		reply = &prompt
	}
	r.send(ctx, ev, scopeKeyboard(c, *reply))
}

// acceptCallback unwraps button data pressed for the active step.
// Buttons from another wizard or step, or a kind the step does not take, are refused.
func (r *Router) acceptCallback(c *conversation, data string) (string, bool) {
	scope, value, found := strings.Cut(data, callbackScopeSep)
	if !found || scope != stepScope(c) {
		return "", false
	}

	def := r.wizards[c.wizard].steps[c.step]
	if def.buttons == "" || !strings.HasPrefix(value, def.buttons) {
		return "", false
	}

	return value, true
}

func stepScope(c *conversation) string {
	return string(c.wizard) + "/" + string(c.step)
}

// scopeKeyboard tags every button with the step that shows it.
func scopeKeyboard(c *conversation, reply Reply) Reply {
	if len(reply.Keyboard) == 0 {
		return reply
	}

	scope := stepScope(c) + callbackScopeSep
	keyboard := make(Keyboard, len(reply.Keyboard))
	for i, row := range reply.Keyboard {
		keyboard[i] = make([]Button, len(row))
		for j, button := range row {
			button.Data = scope + button.Data
			keyboard[i][j] = button
		}
	}
	reply.Keyboard = keyboard

	return reply
}

func sessionKey(ev Event) session.Key {
	return session.Key{ChatID: ev.ChatID, UserID: ev.UserID}
}

func (r *Router) buildWizards() map[wizardName]*wizard {
	wizards := []*wizard{
		r.entryWizard(),
		r.updateWizard(),
		r.deleteWizard(),
		r.budgetWizard(),
		r.budgetDeleteWizard(),
	}

	out := make(map[wizardName]*wizard, len(wizards))
	for _, w := range wizards {
		if _, ok := w.steps[w.first]; !ok {
			panic(fmt.Sprintf("wizard %s has no first step %s", w.name, w.first))
		}
		out[w.name] = w
	}

	return out
}

func entryKindLabel(kind models.EntryKind) string {
	if kind == models.EntryKindIncome {
		return "income"
	}
	return "expense"
}
