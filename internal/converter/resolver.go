package converter

import (
	"github.com/hube-energy/emissor/internal/normalize"
	"github.com/hube-energy/emissor/internal/types"
)

// ResolveField returns the cleaned value of the first alias present in row
// with a non-blank value, or def when none matches. Blank cells, missing
// markers and absent columns are all treated the same way.
func ResolveField(row types.Row, aliases []string, def string) string {
	for _, alias := range aliases {
		raw, ok := row.Get(alias)
		if !ok {
			continue
		}
		if value := cleanCell(raw); value != "" {
			return value
		}
	}
	return def
}

// ResolveLegacyPosition reads the cell at a fixed column index. It is the
// fallback for the oldest billing sheet layout, which carried some fields in
// unlabeled columns; nothing else should address cells by position.
func ResolveLegacyPosition(row types.Row, index int) (string, bool) {
	raw, ok := row.At(index)
	if !ok {
		return "", false
	}
	value := cleanCell(raw)
	return value, value != ""
}

// cleanCell flattens line breaks and sanitizes a raw cell.
func cleanCell(raw string) string {
	return normalize.SanitizeText(normalize.FlattenLines(raw))
}
