package bot

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"example.com/finance-tracker-bot/backend/internal/ledger"
	"example.com/finance-tracker-bot/backend/internal/models"
	"example.com/finance-tracker-bot/backend/internal/parser"
)

const (
	msgStart = "👋 Hello! Use /inc to log income or /exp to log an expense.\n" +
		"📝 Or send: `Food 250 UPI Lunch` or `Income 500000 Salary`\n" +
		"🔍 Want to see entries? Try: `show expenses for today` or `show all income`\n" +
		"💰 Plan spending with /budget, see them with /budgets. /help lists everything."

	msgHelp = "*Commands*\n" +
		"/inc, /exp - add income or expense step by step\n" +
		"/update, /delete - change or remove a transaction by ID\n" +
		"/budget - create a budget, /budgets - list budgets with status\n" +
		"/delete\\_budget - remove a budget\n" +
		"/export - download all transactions\n" +
		"/cancel - stop the current dialog\n\n" +
		"*Quick entry*\n" +
		"`Food 250 UPI Lunch yesterday`\n" +
		"`Salary 50000 Bank 2025-06-01`\n\n" +
		"*Views*\n" +
		"`show expenses of food,travel via upi from 2025-01-01 to 2025-01-31`\n" +
		"`show all income`\n" +
		"`show transactions for yesterday`\n" +
		"Start with `generate` instead of `show` to get a spreadsheet.\n\n" +
		"*Edits*\n" +
		"`update transaction 32 with Food 250 UPI`\n" +
		"`delete transaction 32`, `show budget 3`"

	msgCancelled       = "❌ Cancelled."
	msgNothingToCancel = "ℹ️ Nothing to cancel."
	msgExpired         = "⌛ This dialog has expired. Start again with a command."
	msgUnknownCommand  = "❓ Unknown command. Send /help to see what I can do."
	msgGenericFailure  = "⚠️ Something went wrong while processing your request."
	msgUnrecognized    = "❌ Unrecognized input. Please use 'Show ...', quick entry, or update format."

	msgInvalidNumber = "❌ Please enter a valid number."
	msgInvalidDate   = "❌ Invalid date format. Use YYYY-MM-DD or type 'today'."
	msgNoSuchDate    = "❌ %s is not a valid date. Use YYYY-MM-DD."
	msgSaveFailed    = "❌ Failed to save. Please try again."
	msgQuickSaveFail = "⚠️ Failed to save entry."

	msgTxnNotFound     = "❌ Transaction not found. Please check the ID."
	msgTxnFetchFailed  = "⚠️ Failed to fetch transaction. Please try again later."
	msgInvalidID       = "❌ Please enter a numeric ID."
	msgInvalidFormat   = "❌ Invalid format. Try like: Food 250 UPI Dinner"
	msgUpdateCancelled = "❌ Update cancelled."
	msgUpdateFailed    = "⚠️ Failed to update transaction."
	msgUpdateNotFound  = "❌ Transaction not found or could not be updated."
	msgUpdateBadFormat = "❌ Could not parse the update format. Use something like: `update transaction 32 with Food 250 UPI`"
	msgDeleteCancelled = "❌ Delete cancelled."
	msgDeleteFailed    = "⚠️ Failed to delete transaction."

	msgNoTransactions = "ℹ️ No transactions found."
	msgViewFailed     = "⚠️ Could not process request."
	msgReportFailed   = "⚠️ Could not build the report."
	msgViewHint       = "❌ Unrecognized format.\n" +
		"Try:\n" +
		"• `Show expenses`\n" +
		"• `Show income of salary for yesterday`\n" +
		"• `Show all transactions`\n" +
		"• `Show expenses of food from 2025-06-01 to 2025-06-10`"

	msgBudgetNotFound       = "❌ Budget not found. Please check the ID."
	msgBudgetFailed         = "⚠️ Failed to save budget."
	msgBudgetFetchFailed    = "⚠️ Could not load budgets. Please try again later."
	msgBudgetDeleteFailed   = "⚠️ Failed to delete budget."
	msgBudgetDeleted        = "🗑️ Budget deleted."
	msgBudgetDeleteCanceled = "❌ Budget deletion cancelled."
	msgNoBudgets            = "ℹ️ No budgets yet. Create one with /budget."
	msgEndBeforeStart       = "❌ End date must be after the start date."
	msgPositiveAmount       = "❌ Please enter an amount greater than zero."
	msgPickAtLeastOne       = "❌ Pick at least one option or choose All."
	msgUnknownOption        = "❌ That option is no longer available."
	msgYesOrNo              = "❌ Please answer yes or no."
	msgStaleButton          = "⚠️ That button belongs to an earlier question."

	msgExportFailed = "⚠️ Could not create a download link."
)

const (
	callbackScopeSep = "|"

	callbackConfirmPrefix = "confirm:"
	callbackConfirmYes    = "confirm:yes"
	callbackConfirmNo     = "confirm:no"
	callbackPickAll       = "pick:all"
	callbackPickDone      = "pick:done"
	callbackPickPrefix    = "pick:"
)

func confirmKeyboard() Keyboard {
	return Keyboard{{
		{Text: "✅ Yes", Data: callbackConfirmYes},
		{Text: "❌ No", Data: callbackConfirmNo},
	}}
}

func money(amount decimal.Decimal) string {
	return "₹" + amount.Abs().String()
}

func moneyFixed(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	return sign + "₹" + amount.Abs().StringFixed(2)
}

func displayDate(t time.Time) string {
	return t.Format(parser.DateLayout)
}

func kindBadge(txn models.Transaction) string {
	if txn.IsIncome() {
		return "🟢 Income"
	}
	return "🔴 Expense"
}

// formatTransaction renders one row the same way in views and wizard previews.
func formatTransaction(txn models.Transaction) string {
	return fmt.Sprintf("🆔 ID %d\n%s %s\n📂 %s | 💳 %s\n🗓️ %s | 📝 %s",
		txn.ID, kindBadge(txn), money(txn.Amount),
		txn.Category, txn.Wallet,
		displayDate(txn.CreatedAt), txn.Note,
	)
}

func formatCurrent(txn models.Transaction) string {
	return "📄 *Current Transaction Details:*\n" + formatTransaction(txn)
}

func formatWizardSaved(kind models.EntryKind, txn models.Transaction) string {
	return fmt.Sprintf("✅ Saved %s %s under %s via %s\n🗓️ %s | 📝 %s",
		entryKindLabel(kind), money(txn.Amount), txn.Category, txn.Wallet,
		displayDate(txn.CreatedAt), txn.Note,
	)
}

func formatQuickSaved(verb string, txn models.Transaction) string {
	return fmt.Sprintf("✅ %s *%s* %s via *%s*\n🗓️ %s | 📝 %s",
		verb, titleCase(txn.Category), money(txn.Amount), txn.Wallet,
		displayDate(txn.CreatedAt), txn.Note,
	)
}

func formatView(result models.ViewResult) string {
	var b strings.Builder
	b.WriteString("📊 *Transactions:*\n\n")

	for _, txn := range result.Transactions {
		b.WriteString(formatTransaction(txn))
		b.WriteString("\n\n")
	}

	b.WriteString(formatSummary(result.Summary))
	return b.String()
}

func formatSummary(summary models.ViewSummary) string {
	lines := []string{"📈 *Summary:*"}

	switch summary.Kind {
	case models.ViewKindIncome:
		lines = append(lines, "🟢 Total Income : "+moneyFixed(summary.Income))
	case models.ViewKindExpenses:
		lines = append(lines, "🔴 Total Expenses : "+moneyFixed(summary.Expenses))
	default:
		lines = append(lines,
			"🟢 Total Income   : "+moneyFixed(summary.Income),
			"🔴 Total Expenses : "+moneyFixed(summary.Expenses),
			"🧾 Net: "+moneyFixed(summary.Net),
		)
	}

	return strings.Join(lines, "\n")
}

func bannerIcon(banner models.BudgetBanner) string {
	switch banner {
	case models.BannerExceeding:
		return "🚨"
	case models.BannerNearExhaustion:
		return "⚠️"
	case models.BannerEnded:
		return "🏁"
	default:
		return "✅"
	}
}

func labelSet(values []string, all bool) string {
	if all {
		return "All"
	}
	return strings.Join(values, ", ")
}

func formatBudgetDetails(status models.BudgetStatus) string {
	b := status.Budget

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 *Budget %d*", b.ID)
	if b.IsDefault {
		sb.WriteString(" ⭐ default")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "🗓️ %s → %s (day %d of %d)\n", displayDate(b.StartDate), displayDate(b.EndDate), status.ElapsedDays, status.TotalDays)
	fmt.Fprintf(&sb, "💳 Wallets: %s\n", labelSet(b.Wallets, b.AllWallets))
	fmt.Fprintf(&sb, "📂 Categories: %s\n\n", labelSet(b.Categories, b.AllCategories))
	fmt.Fprintf(&sb, "🎯 Target: %s\n", moneyFixed(b.Amount))
	fmt.Fprintf(&sb, "💸 Spent: %s\n", moneyFixed(status.Spent))
	fmt.Fprintf(&sb, "💼 Remaining: %s\n", moneyFixed(status.Remaining))
	fmt.Fprintf(&sb, "📉 Avg daily: %s | Optimal daily: %s\n", moneyFixed(status.AvgDaily), moneyFixed(status.OptimalDaily))
	fmt.Fprintf(&sb, "🔮 Projected: %s\n\n", moneyFixed(status.Projected))
	fmt.Fprintf(&sb, "%s Status: %s", bannerIcon(status.Banner), status.Banner)

	return sb.String()
}

func formatBudgetLine(status models.BudgetStatus) string {
	b := status.Budget
	return fmt.Sprintf("%s Budget #%d %s → %s: spent %s of %s, %s",
		bannerIcon(status.Banner), b.ID,
		displayDate(b.StartDate), displayDate(b.EndDate),
		moneyFixed(status.Spent), moneyFixed(b.Amount), status.Banner,
	)
}

func formatBudgetDraft(d ledger.BudgetDraft) string {
	return fmt.Sprintf("🗓️ %s → %s\n💳 Wallets: %s\n📂 Categories: %s\n🎯 Target: %s",
		displayDate(d.StartDate), displayDate(d.EndDate),
		labelSet(d.Wallets, d.AllWallets), labelSet(d.Categories, d.AllCategories),
		moneyFixed(d.Amount),
	)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
