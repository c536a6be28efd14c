// Package service implements the onboarding worker: it leases DETECTION_ONBOARD tasks,
// tunes and replays the detection, then moves its last_timestamp forward
package service

import (
	"time"

	"alertctl/internal/platform/logger"
	"alertctl/internal/platform/metrics"
	alerts "alertctl/internal/services/api/alerts/domain"
	dom "alertctl/internal/services/onboarder/domain"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Config controls the worker
type Config struct {
	Concurrency int
	Batch       int
	Lease       time.Duration
	Poll        time.Duration
	MaxAttempts int
	// Owner names this worker on leased rows; empty picks a random id
	Owner string
}

// Deps are the worker's collaborators. Tuner is optional
type Deps struct {
	Queue      dom.Queue
	Detections dom.Detections
	Engine     alerts.Engine
	Tuner      alerts.Tuner

	Clock    clock.Clock
	Registry prometheus.Registerer
}

// Svc implements dom.WorkerPort
type Svc struct {
	queue      dom.Queue
	detections dom.Detections
	engine     alerts.Engine
	tuner      alerts.Tuner
	clk        clock.Clock
	cfg        Config

	jobs     *prometheus.CounterVec
	duration prometheus.Histogram
	log      *logger.Logger
}

var _ dom.WorkerPort = (*Svc)(nil)

// New constructs the worker
func New(d Deps, cfg Config) *Svc {
	if d.Queue == nil || d.Detections == nil || d.Engine == nil {
		panic("onboarder requires Queue, Detections and Engine")
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 16
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 5 * time.Minute
	}
	if cfg.Poll <= 0 {
		cfg.Poll = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Owner == "" {
		cfg.Owner = "onboarder-" + uuid.NewString()
	}

	f := metrics.With(d.Registry)
	return &Svc{
		queue:      d.Queue,
		detections: d.Detections,
		engine:     d.Engine,
		tuner:      d.Tuner,
		clk:        d.Clock,
		cfg:        cfg,
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "onboarding_tasks_total",
			Help:      "Onboarding tasks handled, by result",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "onboarding_task_seconds",
			Help:      "Time spent tuning and replaying one detection",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		log: logger.Named("onboarder"),
	}
}
