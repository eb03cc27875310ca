// =============================================================================
// Billing Note Emitter - Document Renderer
// =============================================================================
//
// Rendering a billing note is a two step pipeline:
//   1. Substitute the document context into an HTML template (html/template)
//   2. Convert the resulting HTML into PDF bytes (PDFConverter)
//
// Every failure is returned as a *RenderError. A render error only ever
// fails the row being rendered; the caller moves on to the next row.
//
// =============================================================================

package render

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

// Error codes for rendering failures.
const (
	ErrCodeTemplateFailed = "TEMPLATE_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
)

// RenderError represents an error during template substitution or PDF
// conversion.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new RenderError.
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

// =============================================================================
// PDF CONVERSION
// =============================================================================

// PDFConverter turns a complete HTML document into PDF bytes.
type PDFConverter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
	Close() error
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer renders billing notes to PDF.
type Renderer struct {
	converter PDFConverter
	timeout   time.Duration
}

// NewRenderer creates a renderer. A positive timeout bounds each PDF
// conversion; zero means no bound beyond the caller's context.
func NewRenderer(converter PDFConverter, timeout time.Duration) *Renderer {
	return &Renderer{converter: converter, timeout: timeout}
}

// Render substitutes values into tmpl and converts the HTML to PDF.
//
// PARAMETERS:
//   - ctx: Cancels the conversion.
//   - tmpl: A parsed note template.
//   - values: The document context; every placeholder must have a value.
//
// RETURNS:
//   - The PDF bytes.
//   - A *RenderError on any failure.
func (r *Renderer) Render(ctx context.Context, tmpl *Template, values map[string]string) ([]byte, error) {
	html, err := tmpl.Execute(values)
	if err != nil {
		return nil, err
	}

	return r.Convert(ctx, html)
}

// Convert runs the PDF conversion of an already substituted document under
// the renderer's timeout.
func (r *Renderer) Convert(ctx context.Context, html string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	pdf, err := r.converter.Convert(ctx, html)
	if err != nil {
		var renderErr *RenderError
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF conversion timed out after %v", r.timeout), err)
		case errors.As(err, &renderErr):
			return nil, renderErr
		default:
			return nil, NewRenderError(ErrCodeRenderFailed, "PDF conversion failed", err)
		}
	}

	if len(pdf) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	return pdf, nil
}

// Close releases the converter.
func (r *Renderer) Close() error {
	return r.converter.Close()
}
