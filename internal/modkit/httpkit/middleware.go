package httpkit

import (
	"compress/flate"
	"net/http"
	"strings"
	"time"

	phttp "alertctl/internal/platform/net/http"
	"alertctl/internal/platform/net/middleware"

	"github.com/prometheus/client_golang/prometheus"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	// RequestTimeout bounds every request, <= 0 means 30s
	RequestTimeout time.Duration

	// SlowRequest logs requests at warn level past this, 0 disables it
	SlowRequest time.Duration

	// CORSOrigins are the allowed browser origins, empty allows none
	CORSOrigins []string

	// Metrics receives the http request counters
	Metrics prometheus.Registerer
}

// CommonStack is the middleware every versioned API scope runs
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.SlowRequest, Registry: o.Metrics}),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.RequestTimeout),
	}
}

// Auth wires the auth middleware to the platform JSON writer
func Auth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.Auth(p, phttp.JSON)
}

// MountAPI scopes mount under /api/{version} with mw applied to that scope only
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/"+strings.TrimPrefix(version, "/"), func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// MountAPIV1 is MountAPI for v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
