package converter

import (
	"fmt"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/normalize"
	"github.com/hube-energy/emissor/internal/types"
	"github.com/hube-energy/emissor/internal/validation"
)

// DefaultPreviewRows is how many contexts a preview shows by default.
const DefaultPreviewRows = 5

// Summary describes an uploaded dataset before any note is rendered.
type Summary struct {
	Source  string   `json:"source"`
	Records int      `json:"records"`
	Columns []string `json:"columns"`

	// Missing lists the unsatisfied required fields; empty when the
	// dataset can be processed.
	Missing []string `json:"missing,omitempty"`

	// TotalColumn is the first amount-due alias found among the headers;
	// empty when the dataset has none. Rows whose cell there is blank fall
	// through to the later aliases, as they do when notes are built.
	TotalColumn    string  `json:"total_column,omitempty"`
	Total          float64 `json:"total"`
	FormattedTotal string  `json:"formatted_total"`
}

// Valid reports whether every required field has a column.
func (s *Summary) Valid() bool {
	return len(s.Missing) == 0
}

// Summarize validates the columns of table and computes its consolidated
// total: the sum of every row's amount due as the notes would carry it.
// A row whose context cannot be built adds nothing.
func Summarize(table *types.Table, registry *config.Registry) *Summary {
	s := &Summary{
		Source:  table.Source,
		Records: len(table.Rows),
		Columns: table.Headers,
		Missing: validation.ValidateColumns(table.Headers, registry),
	}

	for _, alias := range registry.Aliases(config.FieldTotal) {
		if table.HasColumn(alias) {
			s.TotalColumn = alias
			break
		}
	}

	if s.TotalColumn != "" {
		builder := NewBuilder(registry)
		for _, row := range table.Rows {
			s.Total += rowTotal(builder, row)
		}
	}

	s.FormattedTotal = normalize.FormatAmount(s.Total)
	return s
}

func rowTotal(builder *Builder, row types.Row) (total float64) {
	defer func() {
		if r := recover(); r != nil {
			total = 0
		}
	}()
	return builder.Build(row).RawTotal
}

// PreviewRow is the context of one row as shown in a preview.
type PreviewRow struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
	Error  string            `json:"error,omitempty"`
}

// Preview builds the contexts of the first n rows of table. A row whose
// context cannot be built is shown with its error.
func Preview(table *types.Table, builder *Builder, n int) []PreviewRow {
	if n <= 0 || n > len(table.Rows) {
		n = len(table.Rows)
	}

	rows := make([]PreviewRow, 0, n)
	for _, row := range table.Rows[:n] {
		rows = append(rows, previewRow(builder, row))
	}
	return rows
}

func previewRow(builder *Builder, row types.Row) (p PreviewRow) {
	p.Line = row.Line()
	defer func() {
		if r := recover(); r != nil {
			p.Values = nil
			p.Error = fmt.Sprint(r)
		}
	}()
	p.Values = builder.Build(row).Values
	return p
}
