// Package api provides the HTTP API for the application
package api

import (
	"context"
	"time"

	"alertctl/internal/platform/config"
	"alertctl/internal/platform/logger"
	"alertctl/internal/platform/metrics"
	phttp "alertctl/internal/platform/net/http"
	"alertctl/internal/platform/store"

	"alertctl/internal/modkit"
	"alertctl/internal/modkit/httpkit"
	"alertctl/internal/modkit/module"
	"alertctl/internal/modkit/swaggerkit"

	alertsmod "alertctl/internal/services/api/alerts/module"
	metamod "alertctl/internal/services/api/meta/module"

	"github.com/prometheus/client_golang/prometheus"
)

// AnonymousPrincipal is the caller name of requests without a bearer session
const AnonymousPrincipal = "anonymous"

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	Metrics        *prometheus.Registry
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool
	// RequestTimeout bounds every request and must outlast the preview timeout
	RequestTimeout time.Duration
	SlowRequest    time.Duration
	CORSOrigins    []string
}

// Closer releases module resources on shutdown
type Closer interface{ Close() }

// Mount mounts the API service onto the given router. The returned func
// releases module resources and is safe to call once the server stopped
func Mount(r phttp.Router, opt Options) func() {
	// a nil *Registry must not reach the Registerer interface
	var reg prometheus.Registerer
	if opt.Metrics != nil {
		reg = opt.Metrics
	}
	deps := modkit.Deps{
		Cfg:     opt.Config,
		PG:      opt.Store.PG,
		CH:      opt.Store.CH,
		Metrics: reg,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	// sessions are resolved by the alerts module, bound once it exists
	var sessions httpkit.SessionFunc
	resolve := func(ctx context.Context, key string) (string, error) { return sessions(ctx, key) }
	auth := httpkit.Auth(httpkit.NewPortFunc(resolve).WithAnonymous(AnonymousPrincipal))

	alerts := alertsmod.New(deps, alertsmod.Options{}, modkit.WithMiddlewares(auth))
	sessions = module.MustPortsOf[alertsmod.Ports](alerts).Sessions

	mods := []module.Module{
		metamod.New(deps),
		alerts,
	}

	stack := httpkit.CommonStack(httpkit.StackOptions{
		RequestTimeout: opt.RequestTimeout,
		SlowRequest:    opt.SlowRequest,
		CORSOrigins:    opt.CORSOrigins,
		Metrics:        reg,
	})
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})

	if opt.EnableMetrics && opt.Metrics != nil {
		r.Handle("/metrics", metrics.Handler(opt.Metrics))
	}

	return func() {
		for _, m := range mods {
			if c, ok := m.(Closer); ok {
				c.Close()
			}
		}
	}
}
