package store

import (
	"alertctl/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by subclients
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithMetrics registers the statement latency histogram on reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Store) error {
		s.reg = reg
		return nil
	}
}
