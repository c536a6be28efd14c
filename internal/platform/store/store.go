// Package store holds the optional Postgres and ClickHouse backends behind small seams
package store

import (
	"context"
	"errors"

	"alertctl/internal/platform/logger"
	"alertctl/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// Store is the facade for optional backends. The zero value is safe but does nothing
type Store struct {
	// Log is used by subclients, zero means a no op logger
	Log logger.Logger

	// PG is the configuration store seam, nil when disabled
	PG TxRunner

	// CH is the time series and audit seam, nil when disabled
	CH Clickhouse

	reg prometheus.Registerer
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag reports what a write touched
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner wraps transaction execution around a function
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is a tiny seam for columnar writes and queries
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the backends enabled in cfg
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		pgc, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = pgc
	}

	if cfg.CH.Enabled {
		chc, err := openCH(ctx, cfg, s)
		if err != nil {
			s.closePG()
			return nil, err
		}
		s.CH = chc
	}

	return s, nil
}

// queryLatency is the statement histogram, nil when no registry was given
func (s *Store) queryLatency() *prometheus.HistogramVec {
	if s.reg == nil {
		return nil
	}
	return metrics.With(s.reg).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: "store",
		Name:      "query_seconds",
		Help:      "Postgres statement latency by kind",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"op"})
}

func (s *Store) closePG() error {
	if c, ok := s.PG.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Close closes all initialized backends, nil backends are ignored
func (s *Store) Close(_ context.Context) error {
	var errs []error
	if s.CH != nil {
		if err := s.CH.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.closePG(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
