// Package service implements alert configuration lifecycle, create-alert orchestration,
// onboarding dispatch and preview execution
package service

import (
	"context"
	"time"

	"alertctl/internal/core/runpool"
	"alertctl/internal/core/window"
	"alertctl/internal/modkit/repokit"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/logger"
	"alertctl/internal/services/api/alerts/domain"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// Limiter is the onboarding admission gate; TryAcquire must never block
type Limiter interface {
	TryAcquire() bool
	QPS() float64
}

// Options carries the collaborators and tunables of the service
type Options struct {
	// Translator, Validator, Engine, Limiter and Pool are required
	Translator domain.Translator
	Validator  domain.Validator
	Engine     domain.Engine
	Limiter    Limiter
	Pool       *runpool.Pool

	// Tuner is optional; nil leaves translated configs untouched
	Tuner domain.Tuner
	// Auditor is optional
	Auditor domain.Auditor

	Clock    clock.Clock
	Registry prometheus.Registerer

	PreviewTimeout time.Duration
	ReplayLookback time.Duration
	TuningWindow   time.Duration
	CauseDepth     int
	ListLimit      int
}

// Svc implements domain.ServicePort
type Svc struct {
	db     repokit.TxRunner
	binder repokit.Binder[domain.Store]
	store  domain.Store

	translator domain.Translator
	validator  domain.Validator
	tuner      domain.Tuner
	engine     domain.Engine
	limiter    Limiter
	pool       *runpool.Pool
	auditor    domain.Auditor
	clk        clock.Clock

	previewTimeout time.Duration
	lookback       time.Duration
	tuning         time.Duration
	causeDepth     int
	listLimit      int

	m   *svcMetrics
	log *logger.Logger
}

var _ domain.ServicePort = (*Svc)(nil)

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[domain.Store], opt Options) *Svc {
	if db == nil {
		panic("alerts.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("alerts.Service requires a non nil Store binder")
	}
	if opt.Translator == nil {
		panic("alerts.Service requires a non nil Translator")
	}
	if opt.Validator == nil {
		panic("alerts.Service requires a non nil Validator")
	}
	if opt.Engine == nil {
		panic("alerts.Service requires a non nil Engine")
	}
	if opt.Limiter == nil {
		panic("alerts.Service requires a non nil admission Limiter")
	}
	if opt.Pool == nil {
		panic("alerts.Service requires a non nil preview Pool")
	}

	s := &Svc{
		db:             db,
		binder:         binder,
		store:          binder.Bind(db),
		translator:     opt.Translator,
		validator:      opt.Validator,
		tuner:          opt.Tuner,
		engine:         opt.Engine,
		limiter:        opt.Limiter,
		pool:           opt.Pool,
		auditor:        opt.Auditor,
		clk:            opt.Clock,
		previewTimeout: opt.PreviewTimeout,
		lookback:       opt.ReplayLookback,
		tuning:         opt.TuningWindow,
		causeDepth:     opt.CauseDepth,
		listLimit:      opt.ListLimit,
		m:              newMetrics(opt.Registry),
		log:            logger.Named("alerts"),
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	if s.previewTimeout <= 0 {
		s.previewTimeout = time.Minute
	}
	if s.lookback <= 0 {
		s.lookback = window.DefaultLookback
	}
	if s.tuning <= 0 {
		s.tuning = window.DefaultTuning
	}
	if s.causeDepth <= 0 {
		s.causeDepth = perr.DefaultChainDepth
	}
	if s.listLimit <= 0 {
		s.listLimit = 100
	}
	return s
}

// CauseDepth is how many cause levels internal failures report in more-info
func (s *Svc) CauseDepth() int { return s.causeDepth }

// ResolveSession maps an active, unexpired session key to its principal name
func (s *Svc) ResolveSession(ctx context.Context, key string) (string, error) {
	sess, err := s.store.SessionByKey(ctx, key)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return "", perr.Unauthorizedf("invalid session")
		}
		return "", err
	}
	if sess.Expiration > 0 && sess.Expiration < s.clk.Now().UnixMilli() {
		return "", perr.Unauthorizedf("session expired")
	}
	return sess.Principal, nil
}
