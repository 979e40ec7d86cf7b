package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

func TestAnalysisMetrics(t *testing.T) {
	m := NewAnalysisMetrics("test-provider")

	okBefore := testutil.ToFloat64(AnalysesTotal.WithLabelValues("test-provider", StatusOK))
	warnBefore := testutil.ToFloat64(ViolationsTotal.WithLabelValues("warning"))
	errBefore := testutil.ToFloat64(ProviderErrorsTotal.WithLabelValues("test-provider"))

	m.RecordAnalysis(StatusOK, 2*time.Second)
	m.RecordRegions(3)
	m.RecordViolations([]model.Violation{
		{Severity: model.SeverityWarning},
		{Severity: model.SeverityWarning},
		{Severity: model.SeverityError},
	})
	m.RecordProviderError()

	assert.Equal(t, okBefore+1, testutil.ToFloat64(AnalysesTotal.WithLabelValues("test-provider", StatusOK)))
	assert.Equal(t, warnBefore+2, testutil.ToFloat64(ViolationsTotal.WithLabelValues("warning")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(ProviderErrorsTotal.WithLabelValues("test-provider")))
}

func TestWriteTextfile(t *testing.T) {
	NewAnalysisMetrics("textfile").RecordAnalysis(StatusFailed, time.Millisecond)

	path := filepath.Join(t.TempDir(), "mda.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `mda_analyses_total{provider="textfile",status="failed"} 1`)
	assert.Contains(t, string(data), "# TYPE mda_analysis_duration_seconds histogram")
}
