package module

import (
	"time"

	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/config"
)

// Options controls preview execution, onboarding admission and diagnostics
type Options struct {
	PreviewParallelism int
	PreviewQueue       int
	PreviewTimeout     time.Duration

	OnboardingQPS   float64 // <= 0 disables limiting
	OnboardingBurst int     // <= 0 means ceil(QPS)

	ReplayLookback time.Duration
	TuningWindow   time.Duration

	CauseDepth  int
	ListLimit   int
	AutoMigrate bool
}

// FromConfig reads CORE_API_ALERTS_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("CORE_API_ALERTS_")
	return Options{
		PreviewParallelism: ac.MayInt("PREVIEW_PARALLELISM", 5),
		PreviewQueue:       ac.MayInt("PREVIEW_QUEUE", 64),
		PreviewTimeout:     ac.MayMillis("PREVIEW_TIMEOUT", time.Minute),
		OnboardingQPS:      ac.MayFloat64("ONBOARDING_QPS", 5),
		OnboardingBurst:    ac.MayInt("ONBOARDING_BURST", 0),
		ReplayLookback:     ac.MayDuration("REPLAY_LOOKBACK", window.DefaultLookback),
		TuningWindow:       ac.MayDuration("TUNING_WINDOW", window.DefaultTuning),
		CauseDepth:         ac.MayInt("CAUSE_DEPTH", perr.DefaultChainDepth),
		ListLimit:          ac.MayInt("LIST_LIMIT", 100),
		AutoMigrate:        ac.MayBool("AUTO_MIGRATE", true),
	}
}
