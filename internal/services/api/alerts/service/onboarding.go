package service

import (
	"context"
	"encoding/json"
	"strconv"

	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/services/api/alerts/domain"
)

// dispatchOnboarding queues a replay-and-tune task for detection id. The detection was
// just saved by the caller, so a missing row is an invariant failure
func (s *Svc) dispatchOnboarding(ctx context.Context, id int64, tuning domain.TuningRange) error {
	d, err := s.store.DetectionByID(ctx, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.Invariantf("Cannot find detection %d to run onboarding job", id)
	}
	if err != nil {
		return err
	}

	now := s.clk.Now()
	tw := window.Tuning(now, tuning.Start, tuning.End, s.tuning)
	rw := window.Replay(now, d.LastTimestamp, s.lookback)

	info, err := json.Marshal(domain.OnboardingTaskInfo{
		ConfigID:    d.ID,
		TuningStart: tw.Start,
		TuningEnd:   tw.End,
		Start:       rw.Start,
		End:         rw.End,
		SubmittedAt: now.UnixMilli(),
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "serialize onboarding info for %d", id)
	}

	taskID, err := s.store.CreateTask(ctx, domain.Task{
		JobName: jobName(domain.TaskOnboard, d.ID),
		Type:    domain.TaskOnboard,
		Status:  domain.TaskPending,
		Info:    info,
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("task", taskID).Int64("detection", d.ID).
		Int64("start", rw.Start).Int64("end", rw.End).Msg("onboarding task queued")
	return nil
}

func jobName(taskType string, id int64) string {
	return taskType + "_" + strconv.FormatInt(id, 10)
}
