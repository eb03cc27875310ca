// =============================================================================
// Billing Note Emitter - Shared Types
// =============================================================================
//
// This package contains the tabular types shared by the input parsers and the
// conversion pipeline. They live here to avoid import cycles between:
//   - csvparser
//   - xlsxparser
//   - converter
//   - validation
//
// =============================================================================

package types

import "strings"

// =============================================================================
// ROW
// =============================================================================

// Row is one data record of the uploaded dataset.
// Cells are addressable by column name (first occurrence wins when a header
// is repeated) and by zero-based column index.
type Row struct {
	// Index is the zero-based position of the row among the data rows.
	Index int

	// headers is shared with the owning Table; never mutated.
	headers []string

	// position maps a column name to its first index.
	position map[string]int

	// cells holds the raw cell text, one entry per header.
	cells []string
}

// NewRow builds a row from its cells. Cells beyond the header count are kept
// so positional lookups can still reach unlabeled trailing columns.
func NewRow(index int, headers []string, position map[string]int, cells []string) Row {
	values := make([]string, len(cells))
	copy(values, cells)
	if len(values) < len(headers) {
		values = append(values, make([]string, len(headers)-len(values))...)
	}
	return Row{Index: index, headers: headers, position: position, cells: values}
}

// Line returns the 1-based spreadsheet line of the row, accounting for the
// single header line.
func (r Row) Line() int {
	return r.Index + 2
}

// Len returns the number of columns in the row.
func (r Row) Len() int {
	return len(r.cells)
}

// Get returns the raw value under the given column name. The boolean is false
// when the column does not exist or the cell is missing (blank).
func (r Row) Get(column string) (string, bool) {
	idx, ok := r.position[column]
	if !ok {
		return "", false
	}
	return r.At(idx)
}

// At returns the raw value at a zero-based column index. The boolean is false
// when the row is too short or the cell is missing (blank).
func (r Row) At(index int) (string, bool) {
	if index < 0 || index >= len(r.cells) {
		return "", false
	}
	value := r.cells[index]
	if IsMissing(value) {
		return "", false
	}
	return value, true
}

// =============================================================================
// TABLE
// =============================================================================

// Table is a fully loaded dataset: one header line plus data rows.
type Table struct {
	// Source is a human-readable name of the origin (file name, upload name).
	Source string

	// Headers are the column names, matched case- and accent-sensitively.
	Headers []string

	// Rows are the data rows in input order.
	Rows []Row
}

// NewTable builds a table from headers and raw records.
func NewTable(source string, headers []string, records [][]string) *Table {
	position := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := position[h]; !seen {
			position[h] = i
		}
	}

	table := &Table{
		Source:  source,
		Headers: headers,
		Rows:    make([]Row, 0, len(records)),
	}
	for i, record := range records {
		table.Rows = append(table.Rows, NewRow(i, headers, position, record))
	}
	return table
}

// HasColumn reports whether the table carries a column with the exact name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// =============================================================================
// MISSING VALUES
// =============================================================================

// missingMarkers are cell texts treated as "no value". Spreadsheet exports
// from pandas-based tools write NaN literally.
var missingMarkers = map[string]struct{}{
	"nan": {},
	"NaN": {},
	"NaT": {},
}

// IsMissing reports whether a raw cell counts as absent.
func IsMissing(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	_, ok := missingMarkers[trimmed]
	return ok
}
