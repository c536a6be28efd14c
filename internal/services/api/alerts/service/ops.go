package service

import (
	"context"
	"encoding/json"
	"slices"

	"alertctl/internal/modkit/repokit"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/services/api/alerts/domain"
)

// ToggleActivation sets only the stored active flag of detection id
func (s *Svc) ToggleActivation(ctx context.Context, id int64, active bool) error {
	return repokit.InTx(ctx, s.db, s.binder, func(st domain.Store) error {
		d, err := st.DetectionByID(ctx, id)
		if err != nil {
			return notFound(err, "Cannot find config %d", id)
		}
		d.Active = active
		if err := st.UpdateDetection(ctx, d); err != nil {
			return err
		}
		s.log.Info().Int64("id", id).Bool("active", active).Msg("detection activation toggled")
		return nil
	})
}

// List returns the most recently updated detections, optionally narrowed by dataset and metric
func (s *Svc) List(ctx context.Context, q domain.ListQuery) ([]domain.ListedDetection, error) {
	all, err := s.store.RecentDetections(ctx, s.listLimit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ListedDetection, 0, len(all))
	for _, d := range all {
		datasets := []string{d.Dataset}
		if q.Metric != "" && q.Metric != d.Metric {
			continue
		}
		if q.Dataset != "" && !slices.Contains(datasets, q.Dataset) {
			continue
		}
		out = append(out, domain.ListedDetection{
			ID:            d.ID,
			Name:          d.Name,
			Description:   d.Description,
			DatasetNames:  datasets,
			Metric:        d.Metric,
			Active:        d.Active,
			Owners:        d.Owners,
			CreatedBy:     d.CreatedBy,
			LastTimestamp: d.LastTimestamp,
			UpdatedAt:     d.UpdatedAt,
			YAML:          d.YAML,
		})
	}
	return out, nil
}

// Notify queues a NOTIFICATION task for subscription id
func (s *Svc) Notify(ctx context.Context, id int64) error {
	sub, err := s.store.SubscriptionByID(ctx, id)
	if err != nil {
		return notFound(err, "Cannot find subscription group %d", id)
	}
	info, err := json.Marshal(domain.NotificationTaskInfo{
		SubscriptionID: sub.ID,
		SubmittedAt:    s.clk.Now().UnixMilli(),
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "serialize notification info for %d", id)
	}
	taskID, err := s.store.CreateTask(ctx, domain.Task{
		JobName: jobName(domain.TaskNotification, sub.ID),
		Type:    domain.TaskNotification,
		Status:  domain.TaskPending,
		Info:    info,
	})
	if err != nil {
		return err
	}
	s.log.Info().Int64("task", taskID).Int64("subscription", sub.ID).Msg("notification task queued")
	return nil
}
