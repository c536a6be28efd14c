// Package repo provides the Postgres task queue for onboarding
package repo

import (
	"context"
	"encoding/json"
	"time"

	"alertctl/internal/modkit/repokit"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/store"
	alerts "alertctl/internal/services/api/alerts/domain"
	"alertctl/internal/services/onboarder/domain"
)

type (
	// PG is the Postgres binder for domain.Queue
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[domain.Queue] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) domain.Queue { return &queries{q: repokit.RequireQueryer(q)} }

// Lease claims up to limit onboarding tasks that are pending or whose lease ran out
func (r *queries) Lease(ctx context.Context, owner string, limit int, leaseFor time.Duration) ([]domain.Job, error) {
	const sql = `
		WITH ready AS (
			SELECT id
			  FROM tasks
			 WHERE task_type = $1
			   AND (status = $2 OR (status = $3 AND lease_until < now()))
			 ORDER BY created_at ASC
			 LIMIT $4
			 FOR UPDATE SKIP LOCKED
		), upd AS (
			UPDATE tasks t
			   SET status      = $3,
			       lease_owner = $5,
			       lease_until = now() + make_interval(secs => $6),
			       attempts    = t.attempts + 1,
			       updated_at  = now()
			 WHERE t.id IN (SELECT id FROM ready)
			RETURNING t.id, t.job_name, t.task_info, t.attempts
		)
		SELECT id, job_name, task_info, attempts FROM upd ORDER BY id
	`
	jobs, err := store.Many(ctx, r.q, func(row store.Row) (domain.Job, error) {
		var j domain.Job
		err := row.Scan(&j.TaskID, &j.JobName, &j.Info, &j.Attempts)
		return j, err
	}, sql, alerts.TaskOnboard, alerts.TaskPending, alerts.TaskRunning, limit, owner, leaseFor.Seconds())
	if err != nil {
		return nil, perr.FromPostgresf(err, "lease onboarding tasks")
	}
	return jobs, nil
}

func (r *queries) settle(ctx context.Context, taskID int64, owner, status, lastErr string) error {
	const sql = `
		UPDATE tasks
		   SET status      = $3,
		       last_error  = NULLIF($4, ''),
		       lease_owner = NULL,
		       lease_until = NULL,
		       updated_at  = now()
		 WHERE id = $1 AND lease_owner = $2
	`
	err := store.ExecOne(ctx, r.q, sql, taskID, owner, status, lastErr)
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return perr.NotFoundf("task %d is not leased by %s", taskID, owner)
	case err != nil:
		return perr.FromPostgresf(err, "settle task %d", taskID)
	}
	return nil
}

// Complete marks the task done
func (r *queries) Complete(ctx context.Context, taskID int64, owner string) error {
	return r.settle(ctx, taskID, owner, alerts.TaskCompleted, "")
}

// Retry hands the task back to the queue
func (r *queries) Retry(ctx context.Context, taskID int64, owner, lastErr string) error {
	return r.settle(ctx, taskID, owner, alerts.TaskPending, lastErr)
}

// Fail gives up on the task
func (r *queries) Fail(ctx context.Context, taskID int64, owner, lastErr string) error {
	return r.settle(ctx, taskID, owner, alerts.TaskFailed, lastErr)
}

// Advance never moves last_timestamp backwards
func (r *queries) Advance(ctx context.Context, d alerts.DetectionConfig, yaml string) error {
	comps, err := json.Marshal(d.Components)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode components of detection %d", d.ID)
	}
	const sql = `
		UPDATE detection_configs
		   SET last_timestamp = GREATEST(last_timestamp, $2),
		       components     = CASE WHEN yaml = $4 THEN $3::jsonb ELSE components END
		 WHERE id = $1
	`
	err = store.ExecOne(ctx, r.q, sql, d.ID, d.LastTimestamp, comps, yaml)
	switch {
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return perr.NotFoundf("detection %d not found", d.ID)
	case err != nil:
		return perr.FromPostgresf(err, "advance detection %d", d.ID)
	}
	return nil
}
