package i18n

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Language string

const (
	English   Language = "en"
	Bulgarian Language = "bg"
)

var (
	supported = []language.Tag{language.Bulgarian, language.English}
	matcher   = language.NewMatcher(supported)
)

// Tag is the regional tag used for number and currency formatting.
func (l Language) Tag() language.Tag {
	if l == English {
		return language.AmericanEnglish
	}
	return language.MustParse("bg-BG")
}

func ParseLanguage(s string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(English):
		return English, true
	case string(Bulgarian):
		return Bulgarian, true
	}
	return "", false
}

type Translator struct {
	fallback Language
}

// NewTranslator uses defaultLanguage when negotiation finds no match; unknown values mean Bulgarian.
func NewTranslator(defaultLanguage string) Translator {
	l, ok := ParseLanguage(defaultLanguage)
	if !ok {
		l = Bulgarian
	}
	return Translator{fallback: l}
}

func (t Translator) Default() Language {
	return t.fallback
}

// Negotiate picks a supported language from an Accept-Language header value.
func (t Translator) Negotiate(acceptLanguage string) Language {
	if strings.TrimSpace(acceptLanguage) == "" {
		return t.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return t.fallback
	}
	if supported[index] == language.English {
		return English
	}
	return Bulgarian
}

// T returns the message for key in l, falling back to English, then to the key itself.
// Every {name} placeholder is replaced from params.
func (t Translator) T(key string, l Language, params map[string]any) string {
	e, ok := messages[key]
	if !ok {
		return key
	}
	s := e.get(l)
	for name, value := range params {
		s = strings.ReplaceAll(s, "{"+name+"}", fmt.Sprint(value))
	}
	return s
}

// FormatMoney formats amount in the currency with the language's regional conventions.
// An unknown currency code is printed verbatim after the amount.
func FormatMoney(l Language, amount decimal.Decimal, code string) string {
	p := message.NewPrinter(l.Tag())
	unit, err := currency.ParseISO(code)
	if err != nil {
		return p.Sprintf("%s %s", amount.StringFixed(2), code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return p.Sprint(currency.Symbol(unit)) + " " + formatDecimal(p, amount, int32(scale))
}

// formatDecimal keeps every digit of amount: the integer part is grouped by the printer,
// the fraction digits come from the decimal itself.
func formatDecimal(p *message.Printer, amount decimal.Decimal, scale int32) string {
	fixed := amount.StringFixed(scale)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, fraction, _ := strings.Cut(fixed, ".")

	grouped := whole
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		grouped = p.Sprintf("%d", n)
	}
	if fraction == "" {
		return sign + grouped
	}
	return sign + grouped + decimalSeparator(p) + fraction
}

func decimalSeparator(p *message.Printer) string {
	return strings.Trim(p.Sprintf("%.1f", 0.5), "05")
}
