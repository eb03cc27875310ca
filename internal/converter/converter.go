// =============================================================================
// Billing Note Emitter - Converter Module
// =============================================================================
//
// This module contains the batch pipeline. It turns one parsed dataset into
// an archive of billing notes plus a processing report.
//
// PROCESSING PIPELINE:
//   1. Validate the dataset's columns against the field registry
//   2. For every row, in input order:
//        a. Build the document context
//        b. Render the note template and convert it to PDF
//        c. Name the note and add it to the archive
//        d. Record the row's result
//   3. Add the processing report to the archive
//
// ERROR HANDLING:
//   - Missing required columns abort the run before any row is processed
//   - A row that fails (render error, timeout or panic) is recorded as a
//     failure; the run moves on to the next row
//   - Cancellation of the caller's context aborts the run
//
// CONCURRENCY:
//   Rows are processed sequentially by the goroutine calling Run. A
//   Converter holds no per-run state and may serve concurrent runs.
//
// =============================================================================

package converter

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/normalize"
	"github.com/hube-energy/emissor/internal/render"
	"github.com/hube-energy/emissor/internal/types"
	"github.com/hube-energy/emissor/internal/validation"
)

// maxNameLength bounds the customer name part of a note's file name.
const maxNameLength = 25

// billingSuffixLength is how much of the billing number ends a file name.
const billingSuffixLength = 8

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Output is the product of a run.
type Output struct {
	// Archive holds the ZIP bytes: one PDF per successful row plus the
	// report.
	Archive []byte

	// Report records every row.
	Report *Report
}

// DocumentRenderer renders one note to PDF bytes.
type DocumentRenderer interface {
	Render(ctx context.Context, tmpl *render.Template, values map[string]string) ([]byte, error)
}

// ProgressFunc is told after each row how many rows are done.
type ProgressFunc func(done, total int)

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the note pipeline over datasets.
type Converter struct {
	registry *config.Registry
	renderer DocumentRenderer
	logger   *zap.Logger
	mask     bool
	now      func() time.Time
	progress ProgressFunc
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithPrivacyMasking masks customer names and tax ids in notes and reports.
func WithPrivacyMasking(mask bool) Option {
	return func(c *Converter) { c.mask = mask }
}

// WithNow sets the clock used for issue dates and archive timestamps.
func WithNow(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Converter) { c.progress = fn }
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - registry: The field registry used for validation and resolution.
//   - renderer: Renders notes; normally a *render.Renderer.
//   - opts: Optional settings.
//
// RETURNS:
//   - A new Converter instance.
func New(registry *config.Registry, renderer DocumentRenderer, opts ...Option) *Converter {
	c := &Converter{
		registry: registry,
		renderer: renderer,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Builder returns a context builder configured like the converter.
func (c *Converter) Builder() *Builder {
	return NewBuilder(c.registry, WithMasking(c.mask), WithClock(c.now))
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the note pipeline over table.
//
// PARAMETERS:
//   - ctx: Cancelling it aborts the run.
//   - table: The parsed dataset.
//   - tmpl: The note template.
//
// RETURNS:
//   - The archive and report. Present even when every row failed.
//   - A *validation.ColumnsError when required columns are missing, or an
//     error when the run was cancelled or the archive could not be written.
func (c *Converter) Run(ctx context.Context, table *types.Table, tmpl *render.Template) (*Output, error) {
	report, log, err := c.start(table, tmpl.Name)
	if err != nil {
		return nil, err
	}

	builder := c.Builder()
	zipFile := newArchive(report.StartedAt)

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			log.Warn("Run cancelled", zap.Int("line", row.Line()), zap.Error(err))
			return nil, fmt.Errorf("run cancelled at line %d: %w", row.Line(), err)
		}

		result, pdf := c.processRow(ctx, builder, row, tmpl)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled at line %d: %w", row.Line(), err)
		}

		if result.Succeeded() {
			name, err := zipFile.add(result.FileName, result.Line, pdf)
			if err != nil {
				return nil, err
			}
			result.FileName = name
		}

		c.record(log, report, result, len(table.Rows))
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf); err != nil {
		return nil, err
	}
	if _, err := zipFile.add(ReportFileName, 0, buf.Bytes()); err != nil {
		return nil, err
	}

	data, err := zipFile.close()
	if err != nil {
		return nil, err
	}

	c.finish(log, report)
	return &Output{Archive: data, Report: report}, nil
}

// DryRun validates table and builds every row's context without rendering.
// Successful results carry the file name the note would get.
func (c *Converter) DryRun(ctx context.Context, table *types.Table) (*Report, error) {
	report, log, err := c.start(table, "")
	if err != nil {
		return nil, err
	}

	builder := c.Builder()
	names := newArchive(report.StartedAt)

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled at line %d: %w", row.Line(), err)
		}

		result, _ := c.buildRow(builder, row)
		if result.Succeeded() {
			result.FileName = names.claim(result.FileName, result.Line)
		}
		c.record(log, report, result, len(table.Rows))
	}

	c.finish(log, report)
	return report, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// start validates the dataset and opens the run's report.
func (c *Converter) start(table *types.Table, templateName string) (*Report, *zap.Logger, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		Source:    table.Source,
		Template:  templateName,
		StartedAt: c.now(),
		Results:   make([]RowResult, 0, len(table.Rows)),
	}

	log := c.logger.With(
		zap.String("run_id", report.RunID),
		zap.String("source", table.Source),
	)

	if err := validation.Validate(table, c.registry); err != nil {
		log.Warn("Dataset rejected", zap.Error(err))
		return nil, nil, err
	}

	log.Info("Processing dataset",
		zap.Int("rows", len(table.Rows)),
		zap.String("template", templateName),
		zap.Bool("masked", c.mask),
	)
	return report, log, nil
}

// processRow builds and renders one row. The PDF is nil unless the result
// is a success.
func (c *Converter) processRow(ctx context.Context, builder *Builder, row types.Row, tmpl *render.Template) (RowResult, []byte) {
	result, noteCtx := c.buildRow(builder, row)
	if noteCtx == nil {
		return result, nil
	}

	pdf, err := c.renderRow(ctx, tmpl, noteCtx)
	if err != nil {
		result.Status = StatusFailure
		result.Error = err.Error()
		result.FileName = ""
		return result, nil
	}

	result.Size = len(pdf)
	return result, pdf
}

// buildRow builds the context of one row, turning a panic into a failure.
func (c *Converter) buildRow(builder *Builder, row types.Row) (result RowResult, noteCtx *Context) {
	result = RowResult{Line: row.Line(), Status: StatusFailure}

	defer func() {
		if r := recover(); r != nil {
			noteCtx = nil
			result.Status = StatusFailure
			result.Error = fmt.Sprint(r)
			result.RazaoSocial, result.NumeroCobranca = safeIdentify(builder, row)
		}
	}()

	noteCtx = builder.Build(row)
	result.RazaoSocial = noteCtx.Get(config.FieldCustomerName)
	result.NumeroCobranca = noteCtx.Get(config.FieldBillingNumber)
	result.FileName = noteFileName(noteCtx, row)
	result.Status = StatusSuccess
	return result, noteCtx
}

// renderRow renders one context, turning a panic into an error.
func (c *Converter) renderRow(ctx context.Context, tmpl *render.Template, noteCtx *Context) (pdf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			pdf, err = nil, fmt.Errorf("%v", r)
		}
	}()
	return c.renderer.Render(ctx, tmpl, noteCtx.Values)
}

// safeIdentify resolves a row's identifying fields for a failure entry.
func safeIdentify(builder *Builder, row types.Row) (name, billingNumber string) {
	defer func() {
		if recover() != nil {
			name, billingNumber = "", ""
		}
	}()
	return builder.Identify(row)
}

// record appends result to the report and reports progress.
func (c *Converter) record(log *zap.Logger, report *Report, result RowResult, total int) {
	report.Results = append(report.Results, result)

	if result.Succeeded() {
		log.Debug("Note generated",
			zap.Int("line", result.Line),
			zap.String("file", result.FileName),
			zap.Int("bytes", result.Size),
		)
	} else {
		log.Warn("Note failed",
			zap.Int("line", result.Line),
			zap.String("numero_cobranca", result.NumeroCobranca),
			zap.String("error", result.Error),
		)
	}

	if c.progress != nil {
		c.progress(len(report.Results), total)
	}
}

// finish closes the report and logs the run summary.
func (c *Converter) finish(log *zap.Logger, report *Report) {
	report.Duration = c.now().Sub(report.StartedAt)

	log.Info("Processing complete",
		zap.String("outcome", string(report.Outcome())),
		zap.Int("total", report.Total()),
		zap.Int("successes", report.Successes()),
		zap.Int("failures", report.Failures()),
		zap.Duration("duration", report.Duration),
	)
}

// noteFileName names the PDF of a note:
// NOTA_<customer name>_<due date>_<billing number suffix>.pdf.
// The suffix is the last characters of the billing number, or "L<n>" for
// the n-th data row when the row has none.
func noteFileName(noteCtx *Context, row types.Row) string {
	name := normalize.CleanFilenameText(noteCtx.Get(config.FieldCustomerName))
	if len(name) > maxNameLength {
		name = name[:maxNameLength]
	}

	due := normalize.CleanFilenameText(strings.ReplaceAll(noteCtx.Get(config.FieldDueDate), "/", "-"))

	suffix := normalize.CleanFilenameText(noteCtx.Get(config.FieldBillingNumber))
	if len(suffix) > billingSuffixLength {
		suffix = suffix[len(suffix)-billingSuffixLength:]
	}
	if suffix == "" {
		suffix = "L" + strconv.Itoa(row.Index+1)
	}

	return fmt.Sprintf("NOTA_%s_%s_%s.pdf", name, due, suffix)
}
