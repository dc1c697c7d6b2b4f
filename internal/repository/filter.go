package repository

import (
	"strings"
	"time"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
)

type AmountSign int

const (
	SignAny AmountSign = iota
	SignPositive
	SignNegative
)

// TransactionFilter задает выборку транзакций одного владельца.
type TransactionFilter struct {
	UserID int64
	From   *time.Time
	To     *time.Time
	Sign   AmountSign
	// CategoryLike and WalletLike match as case-insensitive substrings, OR across values.
	CategoryLike []string
	WalletLike   []string
	// CategoryIn and WalletIn match whole labels case-insensitively.
	CategoryIn []string
	WalletIn   []string
	Limit      int
}

var transactionColumns = []any{"id", "user_id", "category", "amount", "wallet", "note", "created_at"}

func (f TransactionFilter) whereMods() []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(f.UserID))),
	}

	if f.From != nil {
		mods = append(mods, sm.Where(psql.Quote("created_at").GTE(psql.Arg(*f.From))))
	}
	if f.To != nil {
		mods = append(mods, sm.Where(psql.Quote("created_at").LTE(psql.Arg(*f.To))))
	}

	switch f.Sign {
	case SignPositive:
		mods = append(mods, sm.Where(psql.Raw("amount > 0")))
	case SignNegative:
		mods = append(mods, sm.Where(psql.Raw("amount < 0")))
	}

	if expr, ok := anyILike("category", f.CategoryLike); ok {
		mods = append(mods, sm.Where(expr))
	}
	if expr, ok := anyILike("wallet", f.WalletLike); ok {
		mods = append(mods, sm.Where(expr))
	}

	if len(f.CategoryIn) > 0 {
		mods = append(mods, sm.Where(psql.Raw("lower(category) = ANY(?)", lowerAll(f.CategoryIn))))
	}
	if len(f.WalletIn) > 0 {
		mods = append(mods, sm.Where(psql.Raw("lower(wallet) = ANY(?)", lowerAll(f.WalletIn))))
	}

	return mods
}

func buildListQuery(f TransactionFilter) bob.BaseQuery[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(transactionColumns...),
		sm.From("transactions"),
	}
	mods = append(mods, f.whereMods()...)
	mods = append(mods,
		sm.OrderBy(psql.Quote("created_at")).Desc(),
		sm.OrderBy(psql.Quote("id")).Desc(),
	)

	if f.Limit > 0 {
		mods = append(mods, sm.Limit(f.Limit))
	}

	return psql.Select(mods...)
}

func buildTotalsQuery(f TransactionFilter) bob.BaseQuery[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(
			psql.Raw("COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0)"),
			psql.Raw("COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0)"),
			psql.Raw("COUNT(*)"),
		),
		sm.From("transactions"),
	}
	mods = append(mods, f.whereMods()...)

	return psql.Select(mods...)
}

func anyILike(column string, values []string) (bob.Expression, bool) {
	exprs := make([]bob.Expression, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		exprs = append(exprs, psql.Raw(column+" ILIKE ?", "%"+escapeLike(value)+"%"))
	}

	switch len(exprs) {
	case 0:
		return nil, false
	case 1:
		return exprs[0], true
	default:
		return psql.Group(psql.Or(exprs...)), true
	}
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(value)))
	}
	return out
}
