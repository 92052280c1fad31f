package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coords",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coords",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coords",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Location metrics
	FixesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coords",
		Subsystem: "location",
		Name:      "fixes_received_total",
		Help:      "Raw fixes received, by outcome (first, moved, same, rejected)",
	}, []string{"outcome"})

	FixDisplacement = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "coords",
		Subsystem: "location",
		Name:      "fix_displacement_meters",
		Help:      "Distance between consecutive fixes",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 500, 1000},
	})

	ReadoutsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coords",
		Subsystem: "format",
		Name:      "readouts_rendered_total",
		Help:      "Readouts rendered per projection",
	}, []string{"projection"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coords",
		Subsystem: "format",
		Name:      "render_duration_seconds",
		Help:      "Time to render a readout",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.01, 0.1, 0.5, 1, 2.5, 5},
	}, []string{"projection"})

	FormatFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coords",
		Subsystem: "format",
		Name:      "failures_total",
		Help:      "Items that failed to format, per projection",
	}, []string{"projection"})

	ThreeWordLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coords",
		Subsystem: "what3words",
		Name:      "lookups_total",
		Help:      "Outbound three-word-address lookups by result (ok, error)",
	}, []string{"result"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "coords",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coords",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coords",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
