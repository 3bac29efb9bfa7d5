// Package metrics holds the Prometheus collectors of the lesson site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric.
const Namespace = "gmatprep"

// Metrics holds all collectors. A nil *Metrics is valid and records
// nothing, which keeps handler tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LessonViews        *prometheus.CounterVec
	Answers            *prometheus.CounterVec
	MathRenderFailures *prometheus.CounterVec
	RenderCacheLookups *prometheus.CounterVec
	ContentReloads     *prometheus.CounterVec
	LessonsLoaded      prometheus.Gauge
}

// New registers every collector on a dedicated registry together with the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newWithRegistry(reg)
}

func newWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	m.HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	m.LessonViews = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "lesson_views_total",
		Help:      "Lesson page views by chapter.",
	}, []string{"chapter"})
	m.Answers = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "answers_total",
		Help:      "Graded answers by question kind and result.",
	}, []string{"kind", "result"})
	m.MathRenderFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "math_render_failures_total",
		Help:      "Math expressions that fell back to the error markup.",
	}, []string{"mode"})
	m.RenderCacheLookups = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "render_cache_lookups_total",
		Help:      "Rendered lesson cache lookups by backend and result.",
	}, []string{"backend", "result"})
	m.ContentReloads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "content_reloads_total",
		Help:      "Content tree reloads by result.",
	}, []string{"result"})
	m.LessonsLoaded = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "lessons_loaded",
		Help:      "Published lessons in the live catalog.",
	})

	return m
}

// Registry exposes the dedicated registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// LessonViewed counts one lesson page view.
func (m *Metrics) LessonViewed(chapter string) {
	if m == nil {
		return
	}
	m.LessonViews.WithLabelValues(chapter).Inc()
}

// AnswerGraded counts one graded answer.
func (m *Metrics) AnswerGraded(kind string, correct bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.Answers.WithLabelValues(kind, result).Inc()
}

// MathFailed counts one math fallback.
func (m *Metrics) MathFailed(mode string) {
	if m == nil {
		return
	}
	m.MathRenderFailures.WithLabelValues(mode).Inc()
}

// CacheLookup counts one render cache lookup; result is hit, miss or error.
func (m *Metrics) CacheLookup(backend, result string) {
	if m == nil {
		return
	}
	m.RenderCacheLookups.WithLabelValues(backend, result).Inc()
}

// ContentReloaded counts a reload and, on success, sets the lesson gauge.
func (m *Metrics) ContentReloaded(lessons int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ContentReloads.WithLabelValues("error").Inc()
		return
	}
	m.ContentReloads.WithLabelValues("success").Inc()
	m.LessonsLoaded.Set(float64(lessons))
}

// Middleware records request count and latency. Unmatched routes are
// grouped under "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
