// =============================================================================
// Billing Note Emitter - Field Transformation
// =============================================================================
//
// Display transformations applied to resolved field values before they
// reach the template. The registry assigns one format per field:
//
//   - text     : the sanitized value as-is
//   - currency : parsed and redisplayed as "R$ 1.234,56"
//   - date     : ISO dates redisplayed as DD/MM/YYYY
//
// Transformations never fail; unparsable input keeps its original text.
//
// =============================================================================

package converter

import (
	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/normalize"
)

// Transform applies the display format of a field to its resolved value.
//
// PARAMETERS:
//   - format: One of the config.Format* values.
//   - value: The resolved, sanitized value.
//
// RETURNS:
//   - The display-ready value.
func Transform(format, value string) string {
	switch format {
	case config.FormatCurrency:
		return normalize.FormatCurrency(value)
	case config.FormatDate:
		return normalize.FormatDate(value)
	default:
		return value
	}
}

// transformField applies the registry format of key to value.
func (b *Builder) transformField(key string, value string) string {
	f, ok := b.registry.Field(key)
	if !ok {
		return value
	}
	return Transform(f.Format, value)
}
