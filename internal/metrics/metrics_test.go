package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordImport(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordImport("professors", 3, 2, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues("professors", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues("professors", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues("professors", "failed")))
}

func TestObserveHTTPAndNil(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveHTTP("GET", "/v1/history", 200, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/history", "200")))

	var none *Metrics
	assert.NotPanics(t, func() {
		none.RecordImport("students", 1, 0, 0)
		none.CacheResult(true)
		none.Cascade("ok")
	})
}
