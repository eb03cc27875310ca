// =============================================================================
// Billing Note Emitter - Column Validation
// =============================================================================
//
// Before any note is rendered the dataset's header line is checked against
// the required fields of the field registry. A required field is satisfied
// when at least one of its accepted column names is present.
//
// ERROR HANDLING:
//   - Every missing field is collected; validation is not fail-fast
//   - Diagnostics keep registry order
//   - Any missing field aborts the whole run (ColumnsError)
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ColumnsError reports required fields with no matching column.
type ColumnsError struct {
	// Missing holds one diagnostic per unsatisfied field, in registry order.
	Missing []string
}

// Error implements the error interface.
func (e *ColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, "; "))
}

// =============================================================================
// VALIDATION FUNCTIONS
// =============================================================================

// ValidateColumns returns a diagnostic for each required field none of whose
// accepted column names appears in headers.
//
// PARAMETERS:
//   - headers: The dataset's column names, matched exactly.
//   - registry: The field registry.
//
// RETURNS:
//   - One line per missing field, formatted
//     "<label> (Colunas aceitas: <alias>, <alias>, ...)". Empty when valid.
func ValidateColumns(headers []string, registry *config.Registry) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}

	var missing []string
	for _, field := range registry.Required() {
		accepted := field.AcceptedColumns()
		if !anyPresent(present, accepted) {
			missing = append(missing, diagnostic(field.Label, accepted))
		}
	}

	return missing
}

// Validate checks a table's header line. It returns a *ColumnsError when any
// required field is missing.
func Validate(table *types.Table, registry *config.Registry) error {
	if missing := ValidateColumns(table.Headers, registry); len(missing) > 0 {
		return &ColumnsError{Missing: missing}
	}
	return nil
}

func anyPresent(present map[string]struct{}, names []string) bool {
	for _, name := range names {
		if _, ok := present[name]; ok {
			return true
		}
	}
	return false
}

func diagnostic(label string, accepted []string) string {
	return fmt.Sprintf("%s (Colunas aceitas: %s)", label, strings.Join(accepted, ", "))
}
