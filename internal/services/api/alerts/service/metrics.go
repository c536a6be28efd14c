package service

import (
	"alertctl/internal/platform/metrics"
	"alertctl/internal/services/api/alerts/domain"

	"github.com/prometheus/client_golang/prometheus"
)

type svcMetrics struct {
	lifecycle *prometheus.CounterVec
	rollbacks *prometheus.CounterVec
	previews  *prometheus.CounterVec
	duration  prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *svcMetrics {
	f := metrics.With(reg)
	return &svcMetrics{
		lifecycle: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "lifecycle_ops_total",
			Help:      "Create and update operations on alert configs",
		}, []string{"resource", "op", "result"}),
		rollbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "rollbacks_total",
			Help:      "Compensating deletes and restores issued by create-alert",
		}, []string{"result"}),
		previews: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "preview_runs_total",
			Help:      "Preview runs by outcome",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "preview_duration_seconds",
			Help:      "Wall time of preview runs including queueing",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}

func (m *svcMetrics) op(resource domain.Kind, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.lifecycle.WithLabelValues(string(resource), op, result).Inc()
}
