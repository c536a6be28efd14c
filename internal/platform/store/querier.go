package store

import (
	"context"
	"errors"
	"time"

	"alertctl/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// pgxQuerier is the statement surface shared by *pgxpool.Pool and pgx.Tx
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// observer reports finished statements to the sql tracer and the latency histogram
type observer struct {
	tracer  pg.QueryTracer
	slowUS  int64
	latency *prometheus.HistogramVec
}

func (o *observer) done(ctx context.Context, op, sql string, args []any, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	if o.latency != nil {
		o.latency.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if o.tracer == nil {
		return
	}
	us := elapsed.Microseconds()
	o.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: us,
		Err:       err,
		Slow:      o.slowUS >= 0 && us >= o.slowUS,
	})
}

// traced implements RowQuerier over a pool or a transaction
type traced struct {
	q   pgxQuerier
	obs *observer
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.obs.done(ctx, "exec", sql, args, start, err)
	return ct, err
}

func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.obs.done(ctx, "query", sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

// QueryRow reports once Scan returns so the scan error is part of the event
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	return row{
		r: t.q.QueryRow(ctx, sql, args...),
		after: func(err error) {
			if errors.Is(err, pgx.ErrNoRows) {
				err = nil
			}
			t.obs.done(ctx, "query_row", sql, args, start, err)
		},
	}
}

// pgRunner is the TxRunner published on Store.PG
type pgRunner struct {
	traced
	pool *pgxpool.Pool
}

var (
	_ TxRunner = (*pgRunner)(nil)
	_ Pinger   = (*pgRunner)(nil)
)

func newPGRunner(p *pg.PG, latency *prometheus.HistogramVec) *pgRunner {
	obs := &observer{tracer: p.Tracer, slowUS: int64(p.SlowMs) * 1000, latency: latency}
	return &pgRunner{traced: traced{q: p.Pool, obs: obs}, pool: p.Pool}
}

// Tx commits when fn returns nil and rolls back otherwise
func (p *pgRunner) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(traced{q: tx, obs: p.obs}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (p *pgRunner) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return errors.New("pg: not connected")
	}
	return p.pool.Ping(ctx)
}

func (p *pgRunner) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }
func (x rows) Columns() []string {
	fd := x.r.FieldDescriptions()
	out := make([]string, len(fd))
	for i := range fd {
		out[i] = fd[i].Name
	}
	return out
}
