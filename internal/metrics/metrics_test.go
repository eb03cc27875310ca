package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hube-energy/emissor/internal/converter"
)

func partialReport() *converter.Report {
	return &converter.Report{
		Results: []converter.RowResult{
			{Line: 2, Status: converter.StatusSuccess, FileName: "NOTA_A.pdf"},
			{Line: 3, Status: converter.StatusFailure, Error: "boom"},
			{Line: 4, Status: converter.StatusSuccess, FileName: "NOTA_B.pdf"},
		},
		Duration: 1500 * time.Millisecond,
	}
}

func TestRecorder_ObserveReport(t *testing.T) {
	r := New()
	r.ObserveReport(partialReport())

	families, err := r.Gather()
	require.NoError(t, err)

	rows := findFamily(families, "emissor_rows_total")
	require.NotNil(t, rows)
	assert.Equal(t, 2.0, findByLabel(rows, "status", "SUCESSO").GetCounter().GetValue())
	assert.Equal(t, 1.0, findByLabel(rows, "status", "FALHA").GetCounter().GetValue())

	runs := findFamily(families, "emissor_runs_total")
	require.NotNil(t, runs)
	assert.Equal(t, 1.0, findByLabel(runs, "outcome", "partial").GetCounter().GetValue())

	duration := findFamily(families, "emissor_run_duration_seconds")
	require.NotNil(t, duration)
	assert.Equal(t, dto.MetricType_HISTOGRAM, duration.GetType())
	assert.Equal(t, uint64(1), duration.Metric[0].GetHistogram().GetSampleCount())
	assert.InDelta(t, 1.5, duration.Metric[0].GetHistogram().GetSampleSum(), 1e-9)
}

func TestRecorder_ObserveRejected(t *testing.T) {
	r := New()
	r.ObserveRejected()
	r.ObserveRejected()

	families, err := r.Gather()
	require.NoError(t, err)

	rejected := findFamily(families, "emissor_datasets_rejected_total")
	require.NotNil(t, rejected)
	assert.Equal(t, 2.0, rejected.Metric[0].GetCounter().GetValue())
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveReport(partialReport())

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `emissor_rows_total{status="FALHA"} 1`)
	assert.Contains(t, string(body), `emissor_runs_total{outcome="partial"} 1`)
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func findByLabel(family *dto.MetricFamily, name, value string) *dto.Metric {
	for _, m := range family.Metric {
		for _, l := range m.Label {
			if l.GetName() == name && l.GetValue() == value {
				return m
			}
		}
	}
	return nil
}
