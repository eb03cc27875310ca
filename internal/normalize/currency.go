package normalize

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CURRENCY
// =============================================================================

// CurrencySymbol is the literal prefix of every formatted amount.
const CurrencySymbol = "R$"

// ZeroAmount is the display text for a blank amount cell.
const ZeroAmount = "R$ 0,00"

// ParseCurrency converts a currency cell into a float for aggregate math.
//
// ACCEPTED SHAPES:
//   - "1234.56"      : dot decimal, no grouping
//   - "1.234,56"     : dot grouping, comma decimal (both separators present)
//   - "1234,56"      : comma decimal, no grouping
//   - any of the above prefixed with "R$" and/or surrounded by spaces
//
// RETURNS:
//   - The parsed value, or 0.0 for blank and unparsable input.
func ParseCurrency(value string) float64 {
	d, ok := parseDecimal(value)
	if !ok {
		return 0.0
	}
	f, _ := d.Float64()
	return f
}

// FormatCurrency redisplays a currency cell as "R$ 1.234,56".
//
// RETURNS:
//   - "R$ 0,00" for blank input.
//   - The original text, unchanged, when it is not a number.
func FormatCurrency(value string) string {
	if strings.TrimSpace(value) == "" {
		return ZeroAmount
	}

	d, ok := parseDecimal(value)
	if !ok {
		return value
	}

	return formatDecimal(d)
}

// FormatAmount formats a numeric amount as "R$ 1.234,56".
func FormatAmount(value float64) string {
	return formatDecimal(decimal.NewFromFloat(value))
}

// parseDecimal applies the separator disambiguation rules and parses the
// remaining text. The boolean is false when the text is blank or not a number.
func parseDecimal(value string) (decimal.Decimal, bool) {
	s := strings.ReplaceAll(value, CurrencySymbol, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}

	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// formatDecimal renders a decimal with dot thousands separators, comma
// decimal separator, two places and the "R$ " prefix.
func formatDecimal(d decimal.Decimal) string {
	sign := ""
	d = d.Round(2)
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.SplitN(d.StringFixed(2), ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteRune('.')
		}
		grouped.WriteRune(c)
	}

	return CurrencySymbol + " " + sign + grouped.String() + "," + decPart
}
