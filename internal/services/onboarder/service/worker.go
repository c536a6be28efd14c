package service

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run polls for onboarding tasks until ctx ends. Each poll leases a batch and
// handles it with at most Concurrency jobs in flight
func (s *Svc) Run(ctx context.Context) error {
	s.log.Info().Str("owner", s.cfg.Owner).Int("concurrency", s.cfg.Concurrency).
		Dur("poll", s.cfg.Poll).Msg("onboarding worker started")
	ticker := s.clk.Ticker(s.cfg.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Poll(ctx); err != nil {
				s.log.Error().Err(err).Msg("lease onboarding tasks failed")
			}
		}
	}
}

// Poll leases one batch and waits for it to settle. It returns how many jobs it leased
func (s *Svc) Poll(ctx context.Context) (int, error) {
	jobs, err := s.queue.Lease(ctx, s.cfg.Owner, s.cfg.Batch, s.cfg.Lease)
	if err != nil {
		return 0, err
	}
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, j := range jobs {
		g.Go(func() error {
			outcome, err := s.handle(ctx, j)
			s.settle(ctx, j, outcome, err)
			return nil
		})
	}
	return len(jobs), g.Wait()
}
