// Package metrics owns the prometheus registry the binaries expose on /metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every collector this module registers
const Namespace = "alertctl"

// New returns a registry preloaded with the go runtime and process collectors
func New() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// With returns a promauto factory bound to reg. A nil reg yields unregistered collectors,
// which is what tests want
func With(reg prometheus.Registerer) promauto.Factory {
	return promauto.With(reg)
}

// Handler serves the registry in the prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
