// Package module wires the onboarding worker and exposes its port
package module

import (
	"alertctl/internal/core/document"
	"alertctl/internal/core/engine"
	"alertctl/internal/modkit"
	"alertctl/internal/modkit/httpkit"
	arepo "alertctl/internal/services/api/alerts/repo"
	asvc "alertctl/internal/services/api/alerts/service"
	dom "alertctl/internal/services/onboarder/domain"
	orepo "alertctl/internal/services/onboarder/repo"
	"alertctl/internal/services/onboarder/service"
)

// Ports holds the ports exposed by the onboarder module
type Ports struct {
	Worker dom.WorkerPort
}

// Module defines the onboarding worker module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the worker module. Non zero overrides win over config
func New(deps modkit.Deps, overrides Options) *Module {
	if deps.PG == nil {
		panic("onboarder module requires a Postgres TxRunner")
	}
	opts := FromConfig(deps.Cfg)
	if overrides.Concurrency != 0 {
		opts.Concurrency = overrides.Concurrency
	}
	if overrides.Batch != 0 {
		opts.Batch = overrides.Batch
	}
	if overrides.Lease != 0 {
		opts.Lease = overrides.Lease
	}
	if overrides.Poll != 0 {
		opts.Poll = overrides.Poll
	}
	if overrides.MaxAttempts != 0 {
		opts.MaxAttempts = overrides.MaxAttempts
	}
	if overrides.Owner != "" {
		opts.Owner = overrides.Owner
	}

	src := engine.NewCHSource(deps.CH)
	detections := arepo.NewPG().Bind(deps.PG)
	docs := asvc.NewDocuments(detections, document.NewTuner(src))

	svc := service.New(service.Deps{
		Queue:      orepo.NewPG().Bind(deps.PG),
		Detections: detections,
		Engine:     engine.New(src),
		Tuner:      docs.Tuner(),
		Registry:   deps.Metrics,
	}, service.Config{
		Concurrency: opts.Concurrency,
		Batch:       opts.Batch,
		Lease:       opts.Lease,
		Poll:        opts.Poll,
		MaxAttempts: opts.MaxAttempts,
		Owner:       opts.Owner,
	})

	return &Module{deps: deps, ports: Ports{Worker: svc}}
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "onboarder" }

// Prefix returns the module prefix (none for a worker)
func (m *Module) Prefix() string { return "" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ httpkit.Router) {}
