package store

import (
	"context"
	"fmt"
	"time"

	chx "alertctl/internal/platform/store/ch"
	"alertctl/internal/platform/store/pg"

	"github.com/cenkalti/backoff/v4"
)

// openPG opens the pool and publishes the runner only once a ping succeeded
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer)
	if err != nil {
		return nil, err
	}

	if err := waitPG(ctx, p, cfg.PG); err != nil {
		p.Close()
		return nil, err
	}
	return newPGRunner(p, s.queryLatency()), nil
}

// waitPG pings the pool with exponential backoff until it answers or attempts run out
func waitPG(ctx context.Context, p *pg.PG, c PGConfig) error {
	attempts := c.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := c.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 150 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0

	tried := 0
	err := backoff.Retry(func() error {
		tried++
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return p.Pool.Ping(pctx)
	}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("postgres ping failed after %d attempts: %w", tried, err)
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.AppName, Tag: cfg.Version})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}
