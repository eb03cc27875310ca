package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hube-energy/emissor/internal/config"
	"github.com/hube-energy/emissor/internal/converter"
	"github.com/hube-energy/emissor/internal/render"
)

type echoConverter struct{}

func (echoConverter) Convert(_ context.Context, html string) ([]byte, error) {
	return []byte("%PDF-" + html), nil
}

func (echoConverter) Close() error { return nil }

const notesCSV = "Nome;Endereço;Cidade;UF;CNPJ/CPF;Número da conta;Nº da cobrança;Vencimento;Mês de Referência;Total a pagar;Dados bancários\n" +
	"Ana Souza;Rua A, 1;Campinas;SP;123.456.789-01;10020;C-1;2024-05-10;04/2024;1000,50;Banco 001\n" +
	"Bruno Lima;Rua B, 2;Campinas;SP;987.654.321-00;10021;C-2;2024-05-10;04/2024;20,00;Banco 001\n"

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.TemplatesDir = t.TempDir()
	cfg.Server.MaxUploadMB = 1

	s := New(cfg, config.MustDefaultRegistry(), render.NewRenderer(echoConverter{}, time.Second), zap.NewNop(), "1.2.3")
	s.now = func() time.Time { return time.Date(2025, 3, 7, 9, 30, 0, 0, time.UTC) }
	return s, cfg
}

func multipartRequest(t *testing.T, path, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGenerateNotes(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, multipartRequest(t, "/api/v1/notes", "notas.csv", notesCSV, map[string]string{"mask": "true"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Notas_0703_0930.zip"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "2", w.Header().Get(HeaderTotal))
	assert.Equal(t, "2", w.Header().Get(HeaderSucceeded))
	assert.Equal(t, "0", w.Header().Get(HeaderFailed))
	assert.Equal(t, "success", w.Header().Get(HeaderOutcome))
	assert.NotEmpty(t, w.Header().Get(HeaderRunID))

	data := w.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"NOTA_ANA_10-05-2024_C-1.pdf",
		"NOTA_BRUNO_10-05-2024_C-2.pdf",
		converter.ReportFileName,
	}, names)
}

func TestGenerateNotes_MissingColumns(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, multipartRequest(t, "/api/v1/notes", "notas.csv", "Nome;UF\nAna;SP\n", nil))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Missing, 6)
	assert.True(t, strings.HasPrefix(resp.Missing[0], "Endereço (Colunas aceitas:"))
}

func TestGenerateNotes_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"no file", multipartRequest(t, "/api/v1/notes", "", "", nil), http.StatusBadRequest},
		{"unknown template", multipartRequest(t, "/api/v1/notes", "notas.csv", notesCSV, map[string]string{"template": "outra.html"}), http.StatusBadRequest},
		{"bad mask", multipartRequest(t, "/api/v1/notes", "notas.csv", notesCSV, map[string]string{"mask": "talvez"}), http.StatusBadRequest},
		{"unsupported format", multipartRequest(t, "/api/v1/notes", "notas.pdf", "x", nil), http.StatusUnsupportedMediaType},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/v1/notes", strings.NewReader("x")), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, tt.req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestGenerateNotes_TooLarge(t *testing.T) {
	s, _ := newTestServer(t)

	big := notesCSV + strings.Repeat("x", 2<<20)
	w := serve(s, multipartRequest(t, "/api/v1/notes", "notas.csv", big, nil))
	assert.GreaterOrEqual(t, w.Code, http.StatusBadRequest)
}

func TestGenerateNotes_NamedTemplate(t *testing.T) {
	s, cfg := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.TemplatesDir, "simples.html"), []byte("<p>{{ razao_social }}</p>"), 0o644))

	w := serve(s, multipartRequest(t, "/api/v1/notes", "notas.csv", notesCSV, map[string]string{"template": "simples.html"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := w.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	for _, f := range zr.File {
		if f.Name != "NOTA_ANA_SOUZA_10-05-2024_C-1.pdf" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		rc.Close()
		assert.Contains(t, buf.String(), "<p>Ana Souza</p>")
		return
	}
	t.Fatal("note for Ana Souza not found")
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	require.Equal(t, http.StatusOK, serve(s, multipartRequest(t, "/api/v1/notes", "notas.csv", notesCSV, nil)).Code)
	require.Equal(t, http.StatusUnprocessableEntity, serve(s, multipartRequest(t, "/api/v1/notes", "notas.csv", "Nome;UF\nAna;SP\n", nil)).Code)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `emissor_rows_total{status="SUCESSO"} 2`)
	assert.Contains(t, body, `emissor_runs_total{outcome="success"} 1`)
	assert.Contains(t, body, "emissor_datasets_rejected_total 1")
}

func TestValidateDataset(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, multipartRequest(t, "/api/v1/validate", "notas.csv", notesCSV, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary converter.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Records)
	assert.Empty(t, summary.Missing)
	assert.Equal(t, "Total a pagar", summary.TotalColumn)
	assert.Equal(t, "R$ 1.020,50", summary.FormattedTotal)
}

func TestListTemplates(t *testing.T) {
	s, cfg := newTestServer(t)
	for _, name := range []string{"b.html", "a.html", "_base.html", ".swp.html", "notas.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.TemplatesDir, name), []byte("<p></p>"), 0o644))
	}

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp TemplatesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a.html", "b.html"}, resp.Templates)
	assert.Equal(t, render.EmbeddedTemplateName, resp.Default)
}
