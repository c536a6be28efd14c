// Package repo provides the Postgres configuration store for alerts
package repo

import (
	"context"
	"encoding/json"

	"alertctl/internal/modkit/repokit"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/platform/store"
	"alertctl/internal/services/api/alerts/domain"
)

type (
	// PG is the Postgres binder for domain.Store
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[domain.Store] { return PG{} }

// Bind attaches a Queryer to the Postgres implementation
func (PG) Bind(q repokit.Queryer) domain.Store { return &queries{q: repokit.RequireQueryer(q)} }

// wrap classifies driver errors and leaves NotFound untouched
func wrap(err error, format string, a ...any) error {
	if err == nil || perr.IsCode(err, perr.ErrorCodeNotFound) {
		return err
	}
	return perr.FromPostgresf(err, format, a...)
}

// affected turns a zero row write into NotFound
func affected(tag repokit.CommandTag, err error, format string, a ...any) error {
	if err != nil {
		return wrap(err, format, a...)
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf(format, a...)
	}
	return nil
}

const detectionCols = `id, name, description, dataset, metric, active, owners, yaml, components,
	last_timestamp, created_by, updated_by, created_at, updated_at`

func scanDetection(r store.Row) (domain.DetectionConfig, error) {
	var d domain.DetectionConfig
	var comps []byte
	if err := r.Scan(
		&d.ID, &d.Name, &d.Description, &d.Dataset, &d.Metric, &d.Active, &d.Owners, &d.YAML, &comps,
		&d.LastTimestamp, &d.CreatedBy, &d.UpdatedBy, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return d, err
	}
	if err := json.Unmarshal(comps, &d.Components); err != nil {
		return d, perr.Wrapf(err, perr.ErrorCodeJSON, "decode components of detection %d", d.ID)
	}
	return d, nil
}

// DetectionByID loads one detection
func (r *queries) DetectionByID(ctx context.Context, id int64) (domain.DetectionConfig, error) {
	d, err := store.One(ctx, r.q, scanDetection,
		`SELECT `+detectionCols+` FROM detection_configs WHERE id = $1`, id)
	return d, wrap(err, "load detection %d", id)
}

// DetectionByName loads one detection by its exact name
func (r *queries) DetectionByName(ctx context.Context, name string) (domain.DetectionConfig, error) {
	d, err := store.One(ctx, r.q, scanDetection,
		`SELECT `+detectionCols+` FROM detection_configs WHERE name = $1`, name)
	return d, wrap(err, "load detection %q", name)
}

// SaveDetection inserts d and returns its id. A taken name fails with DuplicateKey
func (r *queries) SaveDetection(ctx context.Context, d domain.DetectionConfig) (int64, error) {
	comps, err := json.Marshal(d.Components)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeJSON, "encode components of %s", d.Name)
	}
	const sql = `
		INSERT INTO detection_configs (
			name, description, dataset, metric, active, owners, yaml, components,
			last_timestamp, created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, COALESCE($6::text[], '{}'), $7, $8, $9, $10, $11)
		RETURNING id
	`
	id, err := store.Scalar[int64](ctx, r.q, sql,
		d.Name, d.Description, d.Dataset, d.Metric, d.Active, d.Owners, d.YAML, comps,
		d.LastTimestamp, d.CreatedBy, d.UpdatedBy)
	if err != nil {
		return 0, wrap(err, "save detection %s", d.Name)
	}
	return id, nil
}

// UpdateDetection overwrites every mutable column of d.ID
func (r *queries) UpdateDetection(ctx context.Context, d domain.DetectionConfig) error {
	comps, err := json.Marshal(d.Components)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode components of %s", d.Name)
	}
	const sql = `
		UPDATE detection_configs
		   SET name           = $2,
		       description    = $3,
		       dataset        = $4,
		       metric         = $5,
		       active         = $6,
		       owners         = COALESCE($7::text[], '{}'),
		       yaml           = $8,
		       components     = $9,
		       last_timestamp = $10,
		       updated_by     = $11,
		       updated_at     = now()
		 WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, sql,
		d.ID, d.Name, d.Description, d.Dataset, d.Metric, d.Active, d.Owners, d.YAML, comps,
		d.LastTimestamp, d.UpdatedBy)
	return affected(tag, err, "update detection %d", d.ID)
}

// DeleteDetection removes detection id
func (r *queries) DeleteDetection(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM detection_configs WHERE id = $1`, id)
	return affected(tag, err, "delete detection %d", id)
}

// RecentDetections lists the most recently updated detections, newest first
func (r *queries) RecentDetections(ctx context.Context, limit int) ([]domain.DetectionConfig, error) {
	out, err := store.Many(ctx, r.q, scanDetection,
		`SELECT `+detectionCols+` FROM detection_configs ORDER BY updated_at DESC, id DESC LIMIT $1`, limit)
	return out, wrap(err, "list detections")
}

const subscriptionCols = `id, name, application, active, owners, yaml, detection_names, detection_ids,
	vector_clocks, created_by, updated_by, created_at, updated_at`

func scanSubscription(r store.Row) (domain.SubscriptionConfig, error) {
	var s domain.SubscriptionConfig
	var clocks []byte
	if err := r.Scan(
		&s.ID, &s.Name, &s.Application, &s.Active, &s.Owners, &s.YAML, &s.DetectionNames, &s.DetectionIDs,
		&clocks, &s.CreatedBy, &s.UpdatedBy, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return s, err
	}
	s.VectorClocks = map[int64]int64{}
	if err := json.Unmarshal(clocks, &s.VectorClocks); err != nil {
		return s, perr.Wrapf(err, perr.ErrorCodeJSON, "decode vector clocks of subscription %d", s.ID)
	}
	return s, nil
}

// SubscriptionByID loads one subscription group
func (r *queries) SubscriptionByID(ctx context.Context, id int64) (domain.SubscriptionConfig, error) {
	s, err := store.One(ctx, r.q, scanSubscription,
		`SELECT `+subscriptionCols+` FROM subscription_configs WHERE id = $1`, id)
	return s, wrap(err, "load subscription %d", id)
}

// SubscriptionByName loads one subscription group by its exact name
func (r *queries) SubscriptionByName(ctx context.Context, name string) (domain.SubscriptionConfig, error) {
	s, err := store.One(ctx, r.q, scanSubscription,
		`SELECT `+subscriptionCols+` FROM subscription_configs WHERE name = $1`, name)
	return s, wrap(err, "load subscription %q", name)
}

func clocksJSON(s domain.SubscriptionConfig) ([]byte, error) {
	if s.VectorClocks == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(s.VectorClocks)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "encode vector clocks of %s", s.Name)
	}
	return b, nil
}

// SaveSubscription inserts s and returns its id
func (r *queries) SaveSubscription(ctx context.Context, s domain.SubscriptionConfig) (int64, error) {
	clocks, err := clocksJSON(s)
	if err != nil {
		return 0, err
	}
	const sql = `
		INSERT INTO subscription_configs (
			name, application, active, owners, yaml, detection_names, detection_ids,
			vector_clocks, created_by, updated_by
		) VALUES (
			$1, $2, $3, COALESCE($4::text[], '{}'), $5,
			COALESCE($6::text[], '{}'), COALESCE($7::bigint[], '{}'), $8, $9, $10
		)
		RETURNING id
	`
	id, err := store.Scalar[int64](ctx, r.q, sql,
		s.Name, s.Application, s.Active, s.Owners, s.YAML, s.DetectionNames, s.DetectionIDs,
		clocks, s.CreatedBy, s.UpdatedBy)
	if err != nil {
		return 0, wrap(err, "save subscription %s", s.Name)
	}
	return id, nil
}

// UpdateSubscription overwrites every mutable column of s.ID
func (r *queries) UpdateSubscription(ctx context.Context, s domain.SubscriptionConfig) error {
	clocks, err := clocksJSON(s)
	if err != nil {
		return err
	}
	const sql = `
		UPDATE subscription_configs
		   SET name            = $2,
		       application     = $3,
		       active          = $4,
		       owners          = COALESCE($5::text[], '{}'),
		       yaml            = $6,
		       detection_names = COALESCE($7::text[], '{}'),
		       detection_ids   = COALESCE($8::bigint[], '{}'),
		       vector_clocks   = $9,
		       updated_by      = $10,
		       updated_at      = now()
		 WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, sql,
		s.ID, s.Name, s.Application, s.Active, s.Owners, s.YAML, s.DetectionNames, s.DetectionIDs,
		clocks, s.UpdatedBy)
	return affected(tag, err, "update subscription %d", s.ID)
}

// DeleteSubscription removes subscription id
func (r *queries) DeleteSubscription(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM subscription_configs WHERE id = $1`, id)
	return affected(tag, err, "delete subscription %d", id)
}

// CreateTask queues a background task
func (r *queries) CreateTask(ctx context.Context, t domain.Task) (int64, error) {
	const sql = `
		INSERT INTO tasks (job_name, task_type, status, task_info)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	id, err := store.Scalar[int64](ctx, r.q, sql, t.JobName, t.Type, t.Status, t.Info)
	if err != nil {
		return 0, wrap(err, "create task %s", t.JobName)
	}
	return id, nil
}

// SessionByKey loads an active session
func (r *queries) SessionByKey(ctx context.Context, key string) (domain.Session, error) {
	const sql = `
		SELECT session_key, principal, principal_type, expiration_time
		  FROM sessions
		 WHERE session_key = $1 AND active
	`
	s, err := store.One(ctx, r.q, func(row store.Row) (domain.Session, error) {
		var s domain.Session
		var typ string
		err := row.Scan(&s.Key, &s.Principal, &typ, &s.Expiration)
		s.Type = domain.PrincipalType(typ)
		return s, err
	}, sql, key)
	return s, wrap(err, "load session")
}
