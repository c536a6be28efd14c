// Package module mounts the meta endpoints
package module

import (
	"time"

	"alertctl/internal/core/version"
	"alertctl/internal/modkit"
	"alertctl/internal/modkit/httpkit"
	"alertctl/internal/platform/store"

	metahttp "alertctl/internal/services/api/meta/http"
)

// Module serves /meta
type Module struct {
	modkit.Base
	deps metahttp.Deps
}

// New builds the meta module. opts may override the /meta prefix
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	d := metahttp.Deps{
		ServiceName: version.Info().Service,
		StartedAt:   time.Now(),
	}
	d.PG, _ = deps.PG.(store.Pinger)
	d.CH, _ = deps.CH.(store.Pinger)
	return &Module{
		Base: modkit.Build(append([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("/meta")}, opts...)...),
		deps: d,
	}
}

// MountRoutes mounts health, ready, service and engine
func (m *Module) MountRoutes(r httpkit.Router) {
	m.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

// Ports returns nil, meta exports nothing
func (m *Module) Ports() any { return nil }
