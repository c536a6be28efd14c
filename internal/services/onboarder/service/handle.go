package service

import (
	"context"
	"encoding/json"

	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
	alerts "alertctl/internal/services/api/alerts/domain"
	dom "alertctl/internal/services/onboarder/domain"
)

// handle tunes and replays one detection. A deleted or inactive detection is skipped
func (s *Svc) handle(ctx context.Context, j dom.Job) (string, error) {
	start := s.clk.Now()
	defer func() { s.duration.Observe(s.clk.Since(start).Seconds()) }()

	var info alerts.OnboardingTaskInfo
	if err := json.Unmarshal(j.Info, &info); err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "decode task %d info", j.TaskID)
	}

	d, err := s.detections.DetectionByID(ctx, info.ConfigID)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return dom.OutcomeSkipped, nil
	}
	if err != nil {
		return "", err
	}
	if !d.Active {
		return dom.OutcomeSkipped, nil
	}
	yaml := d.YAML

	if s.tuner != nil {
		if d, err = s.tuner.Tune(ctx, d, window.Interval{Start: info.TuningStart, End: info.TuningEnd}); err != nil {
			return "", err
		}
	}

	res, err := s.engine.Run(ctx, d.Pipeline(), window.Interval{Start: info.Start, End: info.End})
	if err != nil {
		return "", err
	}
	if res.LastTimestamp > d.LastTimestamp {
		d.LastTimestamp = res.LastTimestamp
	}
	if err := s.queue.Advance(ctx, d, yaml); err != nil {
		return "", err
	}
	s.log.Info().Int64("task", j.TaskID).Int64("detection", d.ID).Int("anomalies", len(res.Anomalies)).
		Int64("last_timestamp", d.LastTimestamp).Msg("detection onboarded")
	return dom.OutcomeCompleted, nil
}

// permanent errors are not worth another attempt
func permanent(err error) bool {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeJSON, perr.ErrorCodeValidation, perr.ErrorCodeInvalidArgument:
		return true
	}
	return false
}

// settle records the job's outcome on its task row
func (s *Svc) settle(ctx context.Context, j dom.Job, outcome string, err error) {
	log := s.log.With().Int64("task", j.TaskID).Str("job", j.JobName).Int("attempt", j.Attempts).Logger()

	var serr error
	switch {
	case err == nil:
		serr = s.queue.Complete(ctx, j.TaskID, s.cfg.Owner)
	case permanent(err) || j.Attempts >= s.cfg.MaxAttempts:
		outcome = dom.OutcomeFailed
		log.Error().Err(err).Msg("onboarding failed")
		serr = s.queue.Fail(ctx, j.TaskID, s.cfg.Owner, perr.CauseChain(err, perr.DefaultChainDepth))
	default:
		outcome = dom.OutcomeRetried
		log.Warn().Err(err).Msg("onboarding attempt failed, will retry")
		serr = s.queue.Retry(ctx, j.TaskID, s.cfg.Owner, perr.CauseChain(err, perr.DefaultChainDepth))
	}
	if serr != nil {
		log.Error().Err(serr).Str("outcome", outcome).Msg("settle task failed")
		return
	}
	s.jobs.WithLabelValues(outcome).Inc()
}
