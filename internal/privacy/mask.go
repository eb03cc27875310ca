// =============================================================================
// Billing Note Emitter - Privacy Masker
// =============================================================================
//
// Conditional redaction of personal data printed on billing notes:
//   - Tax identifiers (CPF, 11 digits / CNPJ, 14 digits)
//   - Personal names
//
// LEGAL ENTITY RULE:
//   Registered business names are not personal data. When the billed party's
//   tax identifier is a CNPJ (14 digits) the name is printed as-is; only
//   individuals (CPF) get their name masked.
//
// The CPF/CNPJ decision is a digit-count heuristic. No check-digit validation
// is performed; an identifier of any other length passes through unmasked.
//
// =============================================================================

package privacy

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// IndividualDigits is the digit count of a CPF.
	IndividualDigits = 11

	// LegalEntityDigits is the digit count of a CNPJ.
	LegalEntityDigits = 14
)

// Digits returns only the ASCII digits of value.
func Digits(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}

// IsLegalEntity reports whether doc normalizes to a 14-digit CNPJ.
func IsLegalEntity(doc string) bool {
	return len(Digits(doc)) == LegalEntityDigits
}

// MaskTaxID redacts a CPF or CNPJ.
//
// FORMATS:
//   - CPF  "123.456.789-01"     -> "***.***.789-01"
//   - CNPJ "12.345.678/0001-90" -> "**.***.678/0001-**"
//
// Any value that does not reduce to 11 or 14 digits is returned unchanged.
func MaskTaxID(value string) string {
	digits := Digits(value)

	switch len(digits) {
	case IndividualDigits:
		return "***.***." + digits[6:9] + "-" + digits[9:]
	case LegalEntityDigits:
		return "**.***." + digits[5:8] + "/" + digits[8:12] + "-**"
	default:
		return value
	}
}

// MaskPersonalName keeps the first name and replaces every further token with
// asterisks of the same length.
//
// EXAMPLES:
//   - "Stefan Pratti"             -> "Stefan ******"
//   - "João da Silva"             -> "João ** *****"
//   - "Hube"                      -> "Hube"
//   - "Hube Energy", CNPJ doc     -> "Hube Energy"
//
// doc is the unmasked tax identifier of the same party; pass "" when unknown.
func MaskPersonalName(name, doc string) string {
	if doc != "" && IsLegalEntity(doc) {
		return name
	}

	parts := strings.FieldsFunc(name, unicode.IsSpace)
	if len(parts) <= 1 {
		return name
	}

	masked := make([]string, len(parts))
	masked[0] = parts[0]
	for i, part := range parts[1:] {
		masked[i+1] = strings.Repeat("*", utf8.RuneCountInString(part))
	}

	return strings.Join(masked, " ")
}
