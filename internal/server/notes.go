package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hube-energy/emissor/internal/converter"
	"github.com/hube-energy/emissor/internal/logger"
	"github.com/hube-energy/emissor/internal/render"
	"github.com/hube-energy/emissor/internal/types"
	"github.com/hube-energy/emissor/internal/validation"
	"github.com/hube-energy/emissor/pkg/utils"
)

// Response headers carrying the run counts of a generated archive.
const (
	HeaderRunID     = "X-Notes-Run-ID"
	HeaderTotal     = "X-Notes-Total"
	HeaderSucceeded = "X-Notes-Succeeded"
	HeaderFailed    = "X-Notes-Failed"
	HeaderOutcome   = "X-Notes-Outcome"
)

// ErrorResponse is the body of every failed API request.
type ErrorResponse struct {
	Error string `json:"error"`

	// Missing lists unsatisfied required fields on 422 responses.
	Missing []string `json:"missing,omitempty"`
}

// TemplatesResponse is the body of GET /api/v1/templates.
type TemplatesResponse struct {
	Templates []string `json:"templates"`
	Default   string   `json:"default"`
}

// generateNotes handles POST /api/v1/notes.
//
// Form fields:
//   - file: the dataset (CSV or XLSX), required
//   - template: the note template name; empty selects the default
//   - mask: "true" or "false"; empty uses the configured default
func (s *Server) generateNotes(c *gin.Context) {
	log := logger.FromGin(c, s.logger)

	if !s.parseForm(c) {
		return
	}

	mask, err := s.maskOption(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	tmpl, err := s.store.Load(c.PostForm("template"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, render.ErrTemplateNotFound) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	table, ok := s.readUpload(c)
	if !ok {
		return
	}

	conv := converter.New(s.registry, s.renderer,
		converter.WithLogger(log),
		converter.WithPrivacyMasking(mask),
		converter.WithNow(s.now),
	)

	out, err := conv.Run(c.Request.Context(), table, tmpl)
	if err != nil {
		var colErr *validation.ColumnsError
		if errors.As(err, &colErr) {
			s.metrics.ObserveRejected()
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "Colunas obrigatórias ausentes",
				Missing: colErr.Missing,
			})
			return
		}
		log.Error("Note generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	report := out.Report
	s.metrics.ObserveReport(report)
	name := utils.GenerateOutputFileName(s.cfg.ArchiveNameFormat, report.StartedAt, nil)

	c.Header(HeaderRunID, report.RunID)
	c.Header(HeaderTotal, strconv.Itoa(report.Total()))
	c.Header(HeaderSucceeded, strconv.Itoa(report.Successes()))
	c.Header(HeaderFailed, strconv.Itoa(report.Failures()))
	c.Header(HeaderOutcome, string(report.Outcome()))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/zip", out.Archive)
}

// validateDataset handles POST /api/v1/validate.
func (s *Server) validateDataset(c *gin.Context) {
	if !s.parseForm(c) {
		return
	}

	table, ok := s.readUpload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, converter.Summarize(table, s.registry))
}

// listTemplates handles GET /api/v1/templates.
func (s *Server) listTemplates(c *gin.Context) {
	names, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	def := s.cfg.DefaultTemplate
	if def == "" {
		def = render.EmbeddedTemplateName
	}
	c.JSON(http.StatusOK, TemplatesResponse{Templates: names, Default: def})
}

// parseForm reads the multipart body under the upload size limit. On
// failure it writes the error response and returns false.
func (s *Server) parseForm(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes())

	if err := c.Request.ParseMultipartForm(s.maxUploadBytes()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("arquivo maior que %d MB", s.cfg.Server.MaxUploadMB),
			})
			return false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "formulário multipart inválido: " + err.Error()})
		return false
	}
	return true
}

// readUpload parses the "file" form field into a dataset. On failure it
// writes the error response and returns false.
func (s *Server) readUpload(c *gin.Context) (*types.Table, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "arquivo não enviado (campo \"file\")"})
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	defer file.Close()

	table, err := converter.LoadTable(header.Filename, file, converter.LoadOptions{Encoding: s.cfg.Encoding})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, converter.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return nil, false
	}

	return table, true
}

// maskOption reads the "mask" form field.
func (s *Server) maskOption(c *gin.Context) (bool, error) {
	raw := c.PostForm("mask")
	if raw == "" {
		return s.cfg.MaskByDefault, nil
	}
	mask, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid mask value %q", raw)
	}
	return mask, nil
}
