package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// 缓存指标
	cacheHitsTotal   *prometheus.CounterVec
	cacheMissesTotal *prometheus.CounterVec

	// 业务指标
	postsCreatedTotal    prometheus.Counter
	postsDeletedTotal    prometheus.Counter
	commentsAddedTotal   prometheus.Counter
	uploadsTotal         *prometheus.CounterVec
	liveConnectionsGauge prometheus.Gauge
	pushTasksTotal       *prometheus.CounterVec

	// 数据库连接池
	dbOpenConnections *prometheus.GaugeVec
	dbInUse           *prometheus.GaugeVec
	dbIdle            *prometheus.GaugeVec
	dbWaitCount       *prometheus.GaugeVec
}

// NewMetricsCollector 创建指标收集器并注册到 reg
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	f := promauto.With(reg)
	return &MetricsCollector{
		// HTTP 指标
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpResponseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "endpoint"},
		),

		// 缓存指标
		cacheHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_prefix"},
		),

		cacheMissesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_prefix"},
		),

		postsCreatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_created_total",
			Help: "Total number of blog posts created",
		}),

		postsDeletedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_deleted_total",
			Help: "Total number of blog posts deleted",
		}),

		commentsAddedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "blog_comments_added_total",
			Help: "Total number of comments appended",
		}),

		uploadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_uploads_total",
				Help: "Total number of image uploads",
			},
			[]string{"status"},
		),

		liveConnectionsGauge: f.NewGauge(prometheus.GaugeOpts{
			Name: "blog_live_connections",
			Help: "Number of open live comment connections",
		}),

		pushTasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blog_push_tasks_total",
				Help: "Author notification tasks by outcome",
			},
			[]string{"outcome"},
		),

		dbOpenConnections: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_open_connections",
			Help: "Open database connections",
		}, []string{"pool"}),

		dbInUse: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_in_use",
			Help: "Database connections in use",
		}, []string{"pool"}),

		dbIdle: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_idle",
			Help: "Idle database connections",
		}, []string{"pool"}),

		dbWaitCount: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_wait_count",
			Help: "Cumulative number of connection waits",
		}, []string{"pool"}),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint string, status int, duration time.Duration, responseSize int) {
	m.httpRequestsTotal.WithLabelValues(method, endpoint, getStatusCategory(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if responseSize > 0 {
		m.httpResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
	}
}

// RecordCacheOperation 记录缓存命中情况
func (m *MetricsCollector) RecordCacheOperation(keyPrefix string, hit bool) {
	if hit {
		m.cacheHitsTotal.WithLabelValues(keyPrefix).Inc()
	} else {
		m.cacheMissesTotal.WithLabelValues(keyPrefix).Inc()
	}
}

func (m *MetricsCollector) RecordPostCreated() { m.postsCreatedTotal.Inc() }

func (m *MetricsCollector) RecordPostDeleted() { m.postsDeletedTotal.Inc() }

// RecordCommentsAdded 一次提交可能追加多条
func (m *MetricsCollector) RecordCommentsAdded(n int) { m.commentsAddedTotal.Add(float64(n)) }

func (m *MetricsCollector) RecordUpload(success bool) {
	if success {
		m.uploadsTotal.WithLabelValues("success").Inc()
		return
	}
	m.uploadsTotal.WithLabelValues("error").Inc()
}

func (m *MetricsCollector) LiveConnectionOpened() { m.liveConnectionsGauge.Inc() }

func (m *MetricsCollector) LiveConnectionClosed() { m.liveConnectionsGauge.Dec() }

// RecordPushTask outcome: sent / retried / dropped
func (m *MetricsCollector) RecordPushTask(outcome string) {
	m.pushTasksTotal.WithLabelValues(outcome).Inc()
}

// RecordDBPool 记录连接池采样
func (m *MetricsCollector) RecordDBPool(pool string, open, inUse, idle int, waitCount int64) {
	m.dbOpenConnections.WithLabelValues(pool).Set(float64(open))
	m.dbInUse.WithLabelValues(pool).Set(float64(inUse))
	m.dbIdle.WithLabelValues(pool).Set(float64(idle))
	m.dbWaitCount.WithLabelValues(pool).Set(float64(waitCount))
}

// getStatusCategory 获取状态分类
func getStatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

var (
	globalCollector *MetricsCollector
	once            sync.Once
)

// GetGlobalCollector 获取全局指标收集器（注册到默认 registry，只注册一次）
func GetGlobalCollector() *MetricsCollector {
	once.Do(func() {
		globalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	})
	return globalCollector
}
