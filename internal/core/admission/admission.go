// Package admission gates expensive onboarding work behind a non-blocking token bucket
package admission

import (
	"math"

	"alertctl/internal/platform/metrics"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Limiter hands out permits at a fixed rate and never makes a caller wait
type Limiter struct {
	lim *rate.Limiter
	clk clock.Clock
	qps float64

	decisions *prometheus.CounterVec
}

// Options configures a Limiter
type Options struct {
	// QPS is the refill rate in permits per second. <= 0 disables limiting
	QPS float64
	// Burst is the bucket size. <= 0 means ceil(QPS), at least 1
	Burst int

	Clock    clock.Clock
	Registry prometheus.Registerer
}

// New builds a Limiter. The bucket starts full
func New(o Options) *Limiter {
	clk := o.Clock
	if clk == nil {
		clk = clock.New()
	}

	limit := rate.Inf
	burst := o.Burst
	if o.QPS > 0 {
		limit = rate.Limit(o.QPS)
		if burst <= 0 {
			burst = int(math.Ceil(o.QPS))
		}
	}
	if burst < 1 {
		burst = 1
	}

	l := &Limiter{
		clk: clk,
		qps: o.QPS,
		decisions: metrics.With(o.Registry).NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "admission_decisions_total",
			Help:      "Onboarding admission decisions by outcome",
		}, []string{"decision"}),
	}
	l.lim = rate.NewLimiter(limit, burst)
	return l
}

// TryAcquire takes one permit if one is available right now
func (l *Limiter) TryAcquire() bool {
	ok := l.lim.AllowN(l.clk.Now(), 1)
	if ok {
		l.decisions.WithLabelValues("admitted").Inc()
	} else {
		l.decisions.WithLabelValues("rejected").Inc()
	}
	return ok
}

// QPS reports the configured rate, used in the rejection message
func (l *Limiter) QPS() float64 { return l.qps }
