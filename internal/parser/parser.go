package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

const (
	keywordToday              = "today"
	keywordYesterday          = "yesterday"
	keywordDayBeforeYesterday = "day before yesterday"
)

type Clock func() time.Time

// Parser разбирает однострочные команды: быстрый ввод, обновление и просмотр.
type Parser struct {
	loc           *time.Location
	now           Clock
	datePattern   *regexp.Regexp
	updatePattern *regexp.Regexp
	viewRules     []viewRule
}

type QuickEntry struct {
	Category string
	Amount   float64
	Wallet   string
	Note     string
	// Date is nil when the text carries no date signal; the caller substitutes "now".
	Date *time.Time
	// InvalidDate holds a YYYY-MM-DD token that names no calendar day, such as 2025-02-30.
	InvalidDate string
}

type UpdateCommand struct {
	ID int64
	// Entry is set only when a "with <rest>" body was present and parsed.
	Entry   *QuickEntry
	HasBody bool
}

// New создает парсер для региональной временной зоны.
func New(loc *time.Location, now Clock) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}

	return &Parser{
		loc:           loc,
		now:           now,
		datePattern:   regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
		updatePattern: regexp.MustCompile(`(?i)^update\s+transaction\s+(\d+)(?:\s+with\s+(.+))?$`),
		viewRules:     newViewRules(),
	}
}

// Location возвращает временную зону парсера.
func (p *Parser) Location() *time.Location {
	return p.loc
}

// Now возвращает текущее время в региональной зоне.
func (p *Parser) Now() time.Time {
	return p.now().In(p.loc)
}

// Today возвращает начало текущего дня в региональной зоне.
func (p *Parser) Today() time.Time {
	return StartOfDay(p.Now())
}

// ParseQuickEntry разбирает строку вида "Category Amount Wallet [Note] [Date]".
// Дата с несуществующим днем не отменяет разбор: она возвращается в InvalidDate.
func (p *Parser) ParseQuickEntry(text string) (QuickEntry, bool) {
	var (
		date        *time.Time
		invalidDate string
	)

	text = trimTrailingPeriods(text)

	if found := p.datePattern.FindString(text); found != "" {
		parsed, err := time.ParseInLocation(DateLayout, found, p.loc)
		if err != nil {
			invalidDate = found
		} else {
			date = &parsed
		}
		text = strings.Replace(text, found, "", 1)
	}

	parts := strings.Fields(text)

	if keywordDate, rest, ok := p.popDateKeyword(parts); ok {
		date = &keywordDate
		invalidDate = ""
		parts = rest
	}

	if len(parts) < 3 {
		return QuickEntry{}, false
	}

	amount, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return QuickEntry{}, false
	}

	return QuickEntry{
		Category:    parts[0],
		Amount:      amount,
		Wallet:      parts[2],
		Note:        strings.Join(parts[3:], " "),
		Date:        date,
		InvalidDate: invalidDate,
	}, true
}

// ParseUpdate разбирает "update transaction <id> [with <quick entry>]".
func (p *Parser) ParseUpdate(text string) (UpdateCommand, bool) {
	match := p.updatePattern.FindStringSubmatch(trimTrailingPeriods(text))
	if match == nil {
		return UpdateCommand{}, false
	}

	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return UpdateCommand{}, false
	}

	cmd := UpdateCommand{ID: id}
	if body := strings.TrimSpace(match[2]); body != "" {
		cmd.HasBody = true
		if entry, ok := p.ParseQuickEntry(body); ok {
			cmd.Entry = &entry
		}
	}

	return cmd, true
}

// ParseDateInput разбирает ответ на шаг даты: YYYY-MM-DD или today/yesterday/day before yesterday.
func (p *Parser) ParseDateInput(text string) (time.Time, bool) {
	value := strings.ToLower(strings.Join(strings.Fields(text), " "))

	switch value {
	case keywordToday:
		return p.Now(), true
	case keywordYesterday:
		return p.Now().AddDate(0, 0, -1), true
	case keywordDayBeforeYesterday:
		return p.Now().AddDate(0, 0, -2), true
	}

	parsed, err := time.ParseInLocation(DateLayout, value, p.loc)
	if err != nil {
		return time.Time{}, false
	}

	return parsed, true
}

func (p *Parser) popDateKeyword(parts []string) (time.Time, []string, bool) {
	n := len(parts)
	if n >= 3 && strings.EqualFold(strings.Join(parts[n-3:], " "), keywordDayBeforeYesterday) {
		return p.Now().AddDate(0, 0, -2), parts[:n-3], true
	}

	if n == 0 {
		return time.Time{}, parts, false
	}

	switch strings.ToLower(parts[n-1]) {
	case keywordToday:
		return p.Now(), parts[:n-1], true
	case keywordYesterday:
		return p.Now().AddDate(0, 0, -1), parts[:n-1], true
	}

	return time.Time{}, parts, false
}

// trimTrailingPeriods drops sentence-final dots so "Food 100 UPI." reads like "Food 100 UPI".
func trimTrailingPeriods(text string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "."))
}

// StartOfDay возвращает 00:00:00 того же дня в зоне t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay возвращает 23:59:59 того же дня в зоне t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func splitValues(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
