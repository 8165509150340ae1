// Package i18n is the single place where internal status, action and role
// codes become end-user text. Every lookup is total: an unmapped code is
// humanized instead of being echoed back.
package i18n

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// FallbackKind tells a fallback hook which table missed.
type FallbackKind string

const (
	FallbackStatus  FallbackKind = "status"
	FallbackAction  FallbackKind = "action"
	FallbackRole    FallbackKind = "role"
	FallbackMessage FallbackKind = "message"
)

// FallbackHook observes humanized lookups. It must not block.
type FallbackHook func(kind FallbackKind, code string)

type Option func(*Guard)

func WithFallbackHook(hook FallbackHook) Option {
	return func(g *Guard) {
		g.onFallback = hook
	}
}

type Guard struct {
	dict       Dictionary
	codes      map[string]string
	leak       *regexp.Regexp
	money      *message.Printer
	onFallback FallbackHook
}

func New(dict Dictionary, opts ...Option) *Guard {
	g := &Guard{
		dict: Dictionary{
			Locale:         dict.Locale,
			Statuses:       cloneStrings(dict.Statuses),
			Actions:        cloneStrings(dict.Actions),
			Roles:          cloneStrings(dict.Roles),
			Messages:       cloneMessages(dict.Messages),
			CurrencySymbol: dict.CurrencySymbol,
		},
		money: message.NewPrinter(dict.Locale),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.codes = make(map[string]string, len(g.dict.Statuses)+len(g.dict.Actions))
	for code, label := range g.dict.Actions {
		g.codes[code] = label
	}
	for code, label := range g.dict.Statuses {
		g.codes[code] = label
	}
	g.leak = buildLeakPattern(g.codes)
	return g
}

// NewDefault builds a guard over the shipped pt-BR dictionary.
func NewDefault(opts ...Option) *Guard {
	return New(PtBR(), opts...)
}

func (g *Guard) LabelForStatus(code string) string {
	return g.lookup(g.dict.Statuses, FallbackStatus, code)
}

func (g *Guard) LabelForAction(code string) string {
	return g.lookup(g.dict.Actions, FallbackAction, code)
}

func (g *Guard) LabelForRole(code string) string {
	return g.lookup(g.dict.Roles, FallbackRole, code)
}

// Message renders a localized sentence. Arguments are formatted verbatim, so
// callers pass labels, never raw codes.
func (g *Guard) Message(key MessageKey, args ...any) string {
	tmpl, ok := g.dict.Messages[key]
	if !ok {
		g.fallback(FallbackMessage, string(key))
		return g.Humanize(string(key))
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// StatusCodes lists every mapped status code, sorted.
func (g *Guard) StatusCodes() []string {
	return sortedKeys(g.dict.Statuses)
}

// ActionCodes lists every mapped action code, sorted.
func (g *Guard) ActionCodes() []string {
	return sortedKeys(g.dict.Actions)
}

// StatusLabels returns a copy of the status table.
func (g *Guard) StatusLabels() map[string]string {
	return cloneStrings(g.dict.Statuses)
}

// DetectLeakedCodes returns the known codes present in text as whole words,
// in order of first appearance and without duplicates.
func (g *Guard) DetectLeakedCodes(text string) []string {
	if text == "" || g.leak == nil {
		return nil
	}
	matches := g.leak.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// Sanitize rewrites every leaked code in text to its display label.
func (g *Guard) Sanitize(text string) string {
	if text == "" || g.leak == nil {
		return text
	}
	return g.leak.ReplaceAllStringFunc(text, func(code string) string {
		return g.codes[code]
	})
}

// Humanize splits an identifier into words and title-cases them in the
// dictionary's locale.
func (g *Guard) Humanize(code string) string {
	words := splitIdentifier(code)
	if len(words) == 0 {
		if tmpl, ok := g.dict.Messages[MsgNotInformed]; ok {
			return tmpl
		}
		return "-"
	}
	return cases.Title(g.dict.Locale).String(strings.Join(words, " "))
}

// FormatMoney renders an amount with the dictionary's currency conventions,
// e.g. "R$ 10.000,00".
func (g *Guard) FormatMoney(amount decimal.Decimal) string {
	// rounded in decimal first so the float only carries two places
	value := amount.Abs().Round(2).InexactFloat64()
	out := g.money.Sprint(number.Decimal(value, number.Scale(2)))
	if g.dict.CurrencySymbol != "" {
		out = g.dict.CurrencySymbol + " " + out
	}
	if amount.IsNegative() {
		out = "-" + out
	}
	return out
}

func (g *Guard) lookup(table map[string]string, kind FallbackKind, code string) string {
	if label, ok := table[code]; ok && label != "" {
		return label
	}
	g.fallback(kind, code)
	return g.Humanize(code)
}

func (g *Guard) fallback(kind FallbackKind, code string) {
	if g.onFallback != nil {
		g.onFallback(kind, code)
	}
}

func buildLeakPattern(codes map[string]string) *regexp.Regexp {
	if len(codes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(codes))
	for code := range codes {
		keys = append(keys, code)
	}
	// Longest first so DELIVERED_PENDING_CONFIRMATION wins over DELIVERED.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func splitIdentifier(code string) []string {
	var (
		words   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToLower(string(current)))
			current = current[:0]
		}
	}
	runes := []rune(strings.TrimSpace(code))
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()
	return words
}

func sortedKeys(in map[string]string) []string {
	out := make([]string, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
