package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RunsCompleted.Inc()
	assert.InDelta(t, 1, testutil.ToFloat64(a.RunsCompleted), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.RunsCompleted), 0)
}

func TestNewUnregisteredMetrics_NotOnDefaultRegistry(t *testing.T) {
	m := NewUnregisteredMetrics()
	m.RunsCompleted.Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		assert.NotEqual(t, "dock_etl_runs_completed_total", f.GetName())
	}
}

func TestPushMetrics(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetricsForTesting()
	m.RunsCompleted.Add(2)
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)

	err := PushMetrics(context.Background(), srv.URL, "test-job", reg)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/test-job", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPushMetrics_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := PushMetrics(context.Background(), srv.URL, "test-job", prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), srv.URL)
}
