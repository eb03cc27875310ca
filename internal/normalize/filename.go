package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanFilenameText turns arbitrary text into an upper-case, ASCII-only token
// usable in file names on every common platform.
//
// EXAMPLES:
//   - "São Paulo"    -> "SAO_PAULO"
//   - "Empresa S.A." -> "EMPRESA_SA"
//   - "João & Maria" -> "JOAO__MARIA"
//
// Each whitespace rune becomes one underscore, so removed punctuation between
// two spaces leaves a double underscore.
func CleanFilenameText(text string) string {
	if text == "" {
		return ""
	}

	decomposed, _, err := transform.String(norm.NFKD, text)
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, r := range decomposed {
		switch {
		case r > unicode.MaxASCII:
			// accents and other non-ASCII remnants
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	slug := strings.TrimSpace(b.String())
	return strings.ToUpper(strings.ReplaceAll(slug, " ", "_"))
}
