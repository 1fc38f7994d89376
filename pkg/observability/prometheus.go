package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks records stage timings and cache traffic as Prometheus
// metrics. It implements both [PipelineHooks] and [CacheHooks].
type PrometheusHooks struct {
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	cacheBytes    *prometheus.CounterVec
}

// NewPrometheusHooks creates the metrics and registers them on reg.
func NewPrometheusHooks(reg prometheus.Registerer) (*PrometheusHooks, error) {
	h := &PrometheusHooks{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "landscape",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landscape",
			Name:      "stage_errors_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landscape",
			Name:      "cache_requests_total",
			Help:      "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "landscape",
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{h.stageDuration, h.stageErrors, h.cacheRequests, h.cacheBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// OnStageStart implements [PipelineHooks].
func (h *PrometheusHooks) OnStageStart(context.Context, string, int) {}

// OnStageComplete implements [PipelineHooks].
func (h *PrometheusHooks) OnStageComplete(_ context.Context, stage string, d time.Duration, err error) {
	h.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		h.stageErrors.WithLabelValues(stage).Inc()
	}
}

// OnCacheHit implements [CacheHooks].
func (h *PrometheusHooks) OnCacheHit(_ context.Context, kind string) {
	h.cacheRequests.WithLabelValues(kind, "hit").Inc()
}

// OnCacheMiss implements [CacheHooks].
func (h *PrometheusHooks) OnCacheMiss(_ context.Context, kind string) {
	h.cacheRequests.WithLabelValues(kind, "miss").Inc()
}

// OnCacheSet implements [CacheHooks].
func (h *PrometheusHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.cacheBytes.WithLabelValues(kind).Add(float64(size))
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
)
