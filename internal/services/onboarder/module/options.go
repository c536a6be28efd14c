package module

import (
	"time"

	"alertctl/internal/platform/config"
)

// Options controls the onboarding worker
type Options struct {
	Concurrency int
	Batch       int
	Lease       time.Duration
	Poll        time.Duration
	MaxAttempts int
	Owner       string
}

// FromConfig reads ONBOARDER_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("ONBOARDER_")
	return Options{
		Concurrency: c.MayInt("CONCURRENCY", 4),
		Batch:       c.MayInt("BATCH", 16),
		Lease:       c.MayDuration("LEASE", 5*time.Minute),
		Poll:        c.MayDuration("POLL", 2*time.Second),
		MaxAttempts: c.MayInt("MAX_ATTEMPTS", 3),
		Owner:       c.MayString("OWNER", ""),
	}
}
