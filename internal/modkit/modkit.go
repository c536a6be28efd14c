// Package modkit holds what every module is built from: shared deps,
// build options and the route mounting they all do the same way
package modkit

import (
	"net/http"

	"alertctl/internal/modkit/module"
	phttp "alertctl/internal/platform/net/http"
	str "alertctl/internal/platform/strings"
)

// Module is the contract modules satisfy
type Module = module.Module

// Option configures a Base
type Option func(*Base)

// WithName names the module in logs and the port registry
func WithName(name string) Option { return func(b *Base) { b.name = name } }

// WithPrefix sets the mount path, e.g. /yaml
func WithPrefix(prefix string) Option { return func(b *Base) { b.prefix = prefix } }

// WithMiddlewares appends middleware that runs in front of every module route
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Base) { b.mws = append(b.mws, mw...) }
}

// Base carries the name, prefix and middleware of a routed module. Modules embed it
type Base struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
}

// Build applies opts in order. It panics when the name or prefix is missing
func Build(opts ...Option) Base {
	var b Base
	for _, o := range opts {
		o(&b)
	}
	b.name = str.MustString(b.name, "module name")
	b.prefix = str.MustPrefix(b.prefix)
	return b
}

// Name returns the module name
func (b Base) Name() string { return b.name }

// Prefix returns the normalized mount path
func (b Base) Prefix() string { return b.prefix }

// Mount routes register under the prefix behind the module middleware
func (b Base) Mount(r phttp.Router, register func(phttp.Router)) {
	r.Route(b.prefix, func(sub phttp.Router) {
		sub.Use(b.mws...)
		register(sub)
	})
}
