// =============================================================================
// Billing Note Emitter - Processing Report
// =============================================================================
//
// Every input row yields exactly one report entry, successful or not, in
// input order. The report travels inside the archive as a semicolon
// delimited UTF-8 file with a byte order mark, so spreadsheet tools in the
// pt-BR locale open it without an import wizard.
//
// =============================================================================

package converter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ReportFileName is the archive entry holding the processing report.
const ReportFileName = "relatorio_processamento.csv"

// reportHeader is the report's column line.
var reportHeader = []string{
	"linha_planilha",
	"razao_social",
	"numero_cobranca",
	"status",
	"mensagem_erro",
	"nome_arquivo_pdf",
}

// Status is the outcome of one row.
type Status string

const (
	StatusSuccess Status = "SUCESSO"
	StatusFailure Status = "FALHA"
)

// Outcome summarizes a whole run.
type Outcome string

const (
	// OutcomeSuccess means every row produced a note.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means some rows failed and some succeeded.
	OutcomePartial Outcome = "partial"
	// OutcomeFailure means no row produced a note.
	OutcomeFailure Outcome = "failure"
	// OutcomeEmpty means the dataset had no rows.
	OutcomeEmpty Outcome = "empty"
)

// =============================================================================
// ROW RESULTS
// =============================================================================

// RowResult records what happened to one input row.
type RowResult struct {
	// Line is the spreadsheet line of the row: the header is line 1.
	Line int `json:"line"`

	RazaoSocial    string `json:"razao_social"`
	NumeroCobranca string `json:"numero_cobranca"`

	Status Status `json:"status"`

	// Error is the failure reason; empty on success.
	Error string `json:"error,omitempty"`

	// FileName is the archive entry of the note; empty on failure.
	FileName string `json:"file_name,omitempty"`

	// Size is the PDF size in bytes.
	Size int `json:"size,omitempty"`
}

// Succeeded reports whether the row produced a note.
func (r RowResult) Succeeded() bool {
	return r.Status == StatusSuccess
}

// =============================================================================
// REPORT
// =============================================================================

// Report is the ordered record of a run.
type Report struct {
	RunID     string        `json:"run_id"`
	Source    string        `json:"source"`
	Template  string        `json:"template"`
	Results   []RowResult   `json:"results"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Total returns the number of rows processed.
func (r *Report) Total() int {
	return len(r.Results)
}

// Successes returns the number of notes produced.
func (r *Report) Successes() int {
	n := 0
	for _, res := range r.Results {
		if res.Succeeded() {
			n++
		}
	}
	return n
}

// Failures returns the number of rows that produced no note.
func (r *Report) Failures() int {
	return r.Total() - r.Successes()
}

// Outcome classifies the run.
func (r *Report) Outcome() Outcome {
	switch ok := r.Successes(); {
	case r.Total() == 0:
		return OutcomeEmpty
	case ok == r.Total():
		return OutcomeSuccess
	case ok == 0:
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

// Errors returns the failed rows as "Linha N: reason" lines.
func (r *Report) Errors() []string {
	var errs []string
	for _, res := range r.Results {
		if !res.Succeeded() {
			errs = append(errs, fmt.Sprintf("Linha %d: %s", res.Line, res.Error))
		}
	}
	return errs
}

// WriteCSV writes the report in its archived form.
func (r *Report) WriteCSV(w io.Writer) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}
	for _, res := range r.Results {
		record := []string{
			strconv.Itoa(res.Line),
			res.RazaoSocial,
			res.NumeroCobranca,
			string(res.Status),
			res.Error,
			res.FileName,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write report line %d: %w", res.Line, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
