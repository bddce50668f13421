package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStage(t *testing.T) {
	m := New()
	m.ObserveStage("S1_UNIVERSE", 100, 60, 250*time.Millisecond)

	assert.Equal(t, 100.0, testutil.ToFloat64(m.stageRows.WithLabelValues("S1_UNIVERSE", "input")))
	assert.Equal(t, 60.0, testutil.ToFloat64(m.stageRows.WithLabelValues("S1_UNIVERSE", "output")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
}

func TestRunFinished(t *testing.T) {
	m := New()
	at := time.Unix(1_700_000_000, 0)

	m.RunFinished(true, at)
	m.RunFinished(false, at)
	m.RunFinished(true, at)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("failure")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSuccess))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	// must not panic
	m.ObserveStage("S0_DATA", 1, 1, time.Second)
	m.RunFinished(true, time.Now())
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveStage("S7_FACTORS", 12, 12, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ff_stage_rows{direction="output",stage="S7_FACTORS"} 12`)
}
