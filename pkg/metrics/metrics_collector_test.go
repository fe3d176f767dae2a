package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounters(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())

	m.RecordCommentsAdded(2)
	m.RecordCommentsAdded(1)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.commentsAddedTotal))

	m.RecordUpload(true)
	m.RecordUpload(false)
	m.RecordUpload(false)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.uploadsTotal.WithLabelValues("error")))

	m.RecordCacheOperation("post", true)
	m.RecordCacheOperation("post", false)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheHitsTotal.WithLabelValues("post")))

	m.LiveConnectionOpened()
	m.LiveConnectionOpened()
	m.LiveConnectionClosed()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.liveConnectionsGauge))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())
	m.RecordHTTPRequest("GET", "/api/search", 200, 5*time.Millisecond, 120)
	m.RecordHTTPRequest("GET", "/api/search", 429, time.Millisecond, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/search", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/search", "4xx")))
}

func TestRecordDBPool(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())
	m.RecordDBPool("primary", 7, 3, 4, 11)

	assert.Equal(t, float64(7), testutil.ToFloat64(m.dbOpenConnections.WithLabelValues("primary")))
	assert.Equal(t, float64(11), testutil.ToFloat64(m.dbWaitCount.WithLabelValues("primary")))
}

func TestGetStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", getStatusCategory(200))
	assert.Equal(t, "3xx", getStatusCategory(302))
	assert.Equal(t, "5xx", getStatusCategory(503))
	assert.Equal(t, "unknown", getStatusCategory(0))
}
