// =============================================================================
// Billing Note Emitter - Value Normalizer
// =============================================================================
//
// This package turns raw spreadsheet cells into display-ready text:
//   - Free text sanitization (Unicode compatibility composition, control
//     character stripping)
//   - Locale-aware currency parsing and formatting ("R$ 1.234,56")
//   - Date redisplay as DD/MM/YYYY
//   - File-name-safe slugs
//
// None of the functions in this package return errors. Unparsable input
// degrades to a documented default instead.
//
// =============================================================================

package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// FREE TEXT
// =============================================================================

// stripControls removes every rune in Unicode category C (Cc, Cf, Co, Cs).
var stripControls = runes.Remove(runes.In(unicode.C))

// SanitizeText cleans a free-text cell so it is safe for the PDF layout.
//
// PROCESSING:
//  1. Remove control/format characters
//  2. Apply NFKC (compatibility composition)
//  3. Remove control/format characters again (NFKC may expose new ones)
//  4. Trim surrounding whitespace
//
// Stripping before normalizing keeps the function idempotent: a format
// character sitting between a base letter and a combining mark would
// otherwise block composition on the first pass only.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}

	clean, _, err := transform.String(transform.Chain(stripControls, norm.NFKC, stripControls), text)
	if err != nil {
		return strings.TrimSpace(text)
	}

	return strings.TrimSpace(clean)
}

// FlattenLines replaces line breaks with single spaces. Multi-line cells
// would otherwise lose their word boundaries when control characters are
// stripped.
func FlattenLines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(text)
}
