// =============================================================================
// Billing Note Emitter - XLSX Parser
// =============================================================================
//
// This module is responsible for reading billing datasets saved as Excel
// workbooks.
//
// WORKBOOK STRUCTURE (Expected Layout):
//   The first row of the sheet holds the column names, every following
//   non-empty row is one billing note.
//
//   | Nome      | CNPJ/CPF       | UF | Número da conta | Total a pagar | ... |
//   |-----------|----------------|----|-----------------|---------------|-----|
//   | Ana Souza | 123.456.789-01 | SP | 10020           | 1.000,50      | ... |
//
// Cell values are read as displayed by the workbook's number formats, so a
// currency cell formatted "R$ #.##0,00" arrives as text the currency parser
// understands.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hube-energy/emissor/internal/types"
)

// =============================================================================
// PARSER OPTIONS
// =============================================================================

// Options selects which part of the workbook holds the dataset.
type Options struct {
	// Sheet is the worksheet name. Empty means the first sheet.
	Sheet string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseFile opens a workbook from disk and parses it.
func ParseFile(filePath string, opts Options) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	return Parse(file, filepath.Base(filePath), opts)
}

// Parse reads a workbook stream and extracts the dataset.
//
// PARAMETERS:
//   - r: The XLSX stream.
//   - source: A display name for the origin, kept on the table.
//   - opts: Sheet selection.
//
// RETURNS:
//   - The parsed table. A header-only sheet yields a table with no rows.
//   - An error if the workbook cannot be opened or the sheet is empty.
func Parse(r io.Reader, source string, opts Options) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := opts.Sheet
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheetName, err)
	}

	var records [][]string
	for _, row := range rows {
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}
		records = append(records, row)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheetName)
	}

	return types.NewTable(source, parseHeaders(records[0]), records[1:]), nil
}

// parseHeaders trims header cells and names blank ones by column letter.
func parseHeaders(row []string) []string {
	headers := make([]string, len(row))

	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			name, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				name = fmt.Sprintf("%d", i+1)
			}
			cell = "Column_" + name
		}
		headers[i] = cell
	}

	return headers
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
