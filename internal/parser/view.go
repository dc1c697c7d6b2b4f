package parser

import (
	"regexp"
	"strings"
	"time"

	"example.com/finance-tracker-bot/backend/internal/models"
)

type Verb string

const (
	VerbShow     Verb = "show"
	VerbGenerate Verb = "generate"
)

type viewTemplate int

const (
	templateRange viewTemplate = iota
	templateAll
	templateSingle
)

// ViewQuery описывает фильтр просмотра, собранный из текстовой команды.
type ViewQuery struct {
	Verb       Verb
	Kind       models.ViewKind
	Categories []string
	Wallets    []string
	From       time.Time
	To         time.Time
	AllTime    bool
}

type viewRule struct {
	template viewTemplate
	pattern  *regexp.Regexp
	// group indexes inside pattern; zero means the group is absent
	kind, category, walletBefore, walletAfter, from, to, day int
}

const (
	viewVerb     = `^(show|generate)`
	viewKind     = `(?:\s+(income|expenses|transactions))?`
	viewCategory = `(?:\s+of\s+([^0-9]+?))?`
	viewWallet   = `(?:\s+via\s+([^0-9]+?))?`
	viewDate     = `\d{4}-\d{2}-\d{2}`
	viewEnd      = `\s*\.?$`
)

func newViewRules() []viewRule {
	return []viewRule{
		{
			template: templateRange,
			pattern: regexp.MustCompile(viewVerb + `(?:\s+all)?` + viewKind + viewCategory + viewWallet +
				`\s+from\s+(` + viewDate + `)\s+(?:to|till)\s+(today|yesterday|` + viewDate + `)` + viewWallet + viewEnd),
			kind: 2, category: 3, walletBefore: 4, from: 5, to: 6, walletAfter: 7,
		},
		{
			template: templateAll,
			pattern:  regexp.MustCompile(viewVerb + `\s+all` + viewKind + viewCategory + viewWallet + viewEnd),
			kind:     2, category: 3, walletAfter: 4,
		},
		{
			template: templateSingle,
			pattern: regexp.MustCompile(viewVerb + `(?:\s+all)?` + viewKind + viewCategory + viewWallet +
				`(?:\s+for\s+(today|yesterday|` + viewDate + `))?` + viewWallet + viewEnd),
			kind: 2, category: 3, walletBefore: 4, day: 5, walletAfter: 6,
		},
	}
}

// ParseView разбирает команды show/generate. Правила проверяются по порядку: диапазон, всё время, один день.
func (p *Parser) ParseView(text string) (ViewQuery, bool) {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if normalized == "" {
		return ViewQuery{}, false
	}

	for _, rule := range p.viewRules {
		match := rule.pattern.FindStringSubmatch(normalized)
		if match == nil {
			continue
		}

		query, ok := p.buildView(rule, match)
		if !ok {
			// a malformed calendar date in a ranged rule is not retried against later rules
			return ViewQuery{}, false
		}

		return query, true
	}

	return ViewQuery{}, false
}

func (p *Parser) buildView(rule viewRule, match []string) (ViewQuery, bool) {
	group := func(idx int) string {
		if idx == 0 || idx >= len(match) {
			return ""
		}
		return strings.TrimSpace(match[idx])
	}

	query := ViewQuery{
		Verb:       Verb(match[1]),
		Kind:       models.ViewKind(group(rule.kind)),
		Categories: splitValues(group(rule.category)),
	}

	wallets := group(rule.walletBefore)
	if wallets == "" {
		wallets = group(rule.walletAfter)
	}
	query.Wallets = splitValues(wallets)

	switch rule.template {
	case templateRange:
		from, err := time.ParseInLocation(DateLayout, group(rule.from), p.loc)
		if err != nil {
			return ViewQuery{}, false
		}
		to, ok := p.resolveDay(group(rule.to))
		if !ok {
			return ViewQuery{}, false
		}
		query.From = StartOfDay(from)
		query.To = EndOfDay(to)
	case templateAll:
		query.AllTime = true
	case templateSingle:
		day := group(rule.day)
		if day == "" {
			day = keywordToday
		}
		resolved, ok := p.resolveDay(day)
		if !ok {
			return ViewQuery{}, false
		}
		query.From = StartOfDay(resolved)
		query.To = EndOfDay(resolved)
	}

	return query, true
}

func (p *Parser) resolveDay(value string) (time.Time, bool) {
	switch value {
	case keywordToday:
		return p.Now(), true
	case keywordYesterday:
		return p.Now().AddDate(0, 0, -1), true
	}

	parsed, err := time.ParseInLocation(DateLayout, value, p.loc)
	if err != nil {
		return time.Time{}, false
	}

	return parsed, true
}
