// Package http serves the meta endpoints: liveness, readiness, build and engine info
package http

import (
	"context"
	"net/http"
	"time"

	"alertctl/internal/core/engine"
	"alertctl/internal/core/version"
	"alertctl/internal/modkit/httpkit"
	"alertctl/internal/modkit/module"
	"alertctl/internal/platform/store"

	"golang.org/x/sync/errgroup"
)

const pingTimeout = 2 * time.Second

// Deps are the handler dependencies. A nil pinger is reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          store.Pinger
	CH          store.Pinger
}

type handlers struct{ deps Deps }

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/engine", h.engine)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"alertctl-api"`
	Now     string `json:"now"     example:"2026-10-01T13:05:00Z"`
}

// ReadyCheck is one backend probe
type ReadyCheck struct {
	Name   string `json:"name"            example:"pg"`
	Status string `json:"status"          example:"ok"` // ok fail skipped
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse is ok when every backend answered, degraded when one is disabled
// and fail when one is down
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
}

// ServiceResponse is the process uptime and the modules it runs
type ServiceResponse struct {
	Name    string   `json:"name"    example:"alertctl-api"`
	Started string   `json:"started" example:"2026-10-01T13:00:00Z"`
	Uptime  int64    `json:"uptime"  example:"300"`
	Modules []string `json:"modules" example:"alerts,meta"`
}

// EngineResponse lists the detection rules this build can run
type EngineResponse struct {
	Rules    []engine.RuleType `json:"rules"    example:"MEAN_BASELINE,THRESHOLD,PERCENTAGE_CHANGE"`
	Baseline []engine.RuleType `json:"baseline" example:"MEAN_BASELINE,PERCENTAGE_CHANGE"`
	Build    version.BuildInfo `json:"build"`
}

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{OK: true, Service: h.deps.ServiceName, Now: time.Now().UTC().Format(time.RFC3339)}, nil
}

// @Summary Readiness with a ping per backend
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	checks := []ReadyCheck{{Name: "pg"}, {Name: "ch"}}
	pingers := []store.Pinger{h.deps.PG, h.deps.CH}

	var g errgroup.Group
	for i, p := range pingers {
		if p == nil {
			checks[i].Status = "skipped"
			continue
		}
		g.Go(func() error {
			if err := p.Ping(ctx); err != nil {
				checks[i].Status, checks[i].Error = "fail", err.Error()
				return nil
			}
			checks[i].Status = "ok"
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	for _, c := range checks {
		switch {
		case c.Status == "fail":
			status = "fail"
		case c.Status == "skipped" && status == "ok":
			status = "degraded"
		}
	}
	return ReadyResponse{Status: status, Checks: checks}, nil
}

// @Summary Build info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) { return version.Info(), nil }

// @Summary Uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
		Modules: module.Names(),
	}, nil
}

// @Summary Detection rules this build runs
// @Tags Meta
// @Produce json
// @Success 200 {object} EngineResponse
// @Router /meta/engine [get]
func (h *handlers) engine(_ *http.Request) (any, error) {
	out := EngineResponse{Rules: engine.RuleTypes, Baseline: []engine.RuleType{}, Build: version.Info()}
	for _, t := range engine.RuleTypes {
		if t.BaselineCapable() {
			out.Baseline = append(out.Baseline, t)
		}
	}
	return out, nil
}
