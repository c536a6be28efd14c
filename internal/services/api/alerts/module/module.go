// Package module wires alert configuration endpoints into the API using modkit
package module

import (
	"context"
	"time"

	"alertctl/internal/core/admission"
	"alertctl/internal/core/document"
	"alertctl/internal/core/engine"
	"alertctl/internal/core/runpool"
	modkit "alertctl/internal/modkit"
	"alertctl/internal/modkit/httpkit"
	"alertctl/internal/platform/logger"

	ahttp "alertctl/internal/services/api/alerts/http"
	arepo "alertctl/internal/services/api/alerts/repo"
	asvc "alertctl/internal/services/api/alerts/service"
)

// Module implements the alerts API module
type Module struct {
	modkit.Base

	svc  *asvc.Svc
	pool *runpool.Pool
}

// Ports exposes what other parts of the API need from alerts
type Ports struct {
	// Sessions resolves bearer session keys for the auth middleware
	Sessions httpkit.SessionFunc
}

const bootTimeout = 30 * time.Second

// New constructs the alerts module. Options come from CORE_API_ALERTS_* config;
// non zero fields of overrides win
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("alerts"),
		modkit.WithPrefix("/yaml"),
	}, opts...)...)

	if deps.PG == nil {
		panic("alerts API module requires a Postgres TxRunner")
	}
	cfg := merge(FromConfig(deps.Cfg), overrides)
	log := logger.Named("alerts.module")

	ctx, cancel := context.WithTimeout(context.Background(), bootTimeout)
	defer cancel()
	if cfg.AutoMigrate {
		if err := arepo.Migrate(ctx, deps.PG); err != nil {
			log.Fatal().Err(err).Msg("apply alerts schema")
		}
	}

	auditor := arepo.NewCHAuditor(deps.CH)
	if a, ok := auditor.(*arepo.CHAuditor); ok {
		if err := a.EnsureTable(ctx); err != nil {
			log.Warn().Err(err).Msg("preview audit disabled")
			auditor = nil
		}
	}
	if deps.CH == nil {
		log.Warn().Msg("clickhouse disabled; previews and tuning have no metric source")
	}

	src := engine.NewCHSource(deps.CH)
	binder := arepo.NewPG()
	docs := asvc.NewDocuments(binder.Bind(deps.PG), document.NewTuner(src))

	pool := runpool.New(runpool.Options{
		Name:     "preview",
		Workers:  cfg.PreviewParallelism,
		Queue:    cfg.PreviewQueue,
		Registry: deps.Metrics,
	})

	svc := asvc.New(deps.PG, binder, asvc.Options{
		Translator: docs,
		Validator:  docs.Validator(),
		Tuner:      docs.Tuner(),
		Engine:     engine.New(src),
		Limiter: admission.New(admission.Options{
			QPS:      cfg.OnboardingQPS,
			Burst:    cfg.OnboardingBurst,
			Registry: deps.Metrics,
		}),
		Pool:           pool,
		Auditor:        auditor,
		Registry:       deps.Metrics,
		PreviewTimeout: cfg.PreviewTimeout,
		ReplayLookback: cfg.ReplayLookback,
		TuningWindow:   cfg.TuningWindow,
		CauseDepth:     cfg.CauseDepth,
		ListLimit:      cfg.ListLimit,
	})

	log.Info().
		Int("preview_workers", cfg.PreviewParallelism).
		Int("preview_queue", cfg.PreviewQueue).
		Dur("preview_timeout", cfg.PreviewTimeout).
		Float64("onboarding_qps", cfg.OnboardingQPS).
		Msg("alerts module ready")

	return &Module{Base: b, svc: svc, pool: pool}
}

func merge(base, o Options) Options {
	if o.PreviewParallelism > 0 {
		base.PreviewParallelism = o.PreviewParallelism
	}
	if o.PreviewQueue > 0 {
		base.PreviewQueue = o.PreviewQueue
	}
	if o.PreviewTimeout > 0 {
		base.PreviewTimeout = o.PreviewTimeout
	}
	if o.OnboardingQPS != 0 {
		base.OnboardingQPS = o.OnboardingQPS
	}
	if o.OnboardingBurst > 0 {
		base.OnboardingBurst = o.OnboardingBurst
	}
	if o.ReplayLookback > 0 {
		base.ReplayLookback = o.ReplayLookback
	}
	if o.TuningWindow > 0 {
		base.TuningWindow = o.TuningWindow
	}
	if o.CauseDepth > 0 {
		base.CauseDepth = o.CauseDepth
	}
	if o.ListLimit > 0 {
		base.ListLimit = o.ListLimit
	}
	return base
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) {
		ahttp.Register(rr, m.svc, ahttp.Options{CauseDepth: m.svc.CauseDepth()})
	})
}

// Ports returns the session resolver
func (m *Module) Ports() any { return Ports{Sessions: m.svc.ResolveSession} }

// Close stops the preview workers after in-flight runs finish
func (m *Module) Close() { m.pool.Close() }
