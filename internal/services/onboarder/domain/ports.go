// Package domain holds the onboarding worker's types and ports
package domain

import (
	"context"
	"time"

	alerts "alertctl/internal/services/api/alerts/domain"
)

// Job is a leased DETECTION_ONBOARD task
type Job struct {
	TaskID   int64
	JobName  string
	Info     []byte
	Attempts int // including the current lease
}

// Queue leases and settles onboarding tasks. Settling a task whose lease
// moved to another owner fails with NotFound
type Queue interface {
	Lease(ctx context.Context, owner string, limit int, leaseFor time.Duration) ([]Job, error)
	Complete(ctx context.Context, taskID int64, owner string) error
	Retry(ctx context.Context, taskID int64, owner, lastErr string) error
	Fail(ctx context.Context, taskID int64, owner, lastErr string) error

	// Advance moves last_timestamp forward and stores tuned components unless
	// the detection's document changed since yaml was read
	Advance(ctx context.Context, d alerts.DetectionConfig, yaml string) error
}

// Detections reads detection configs
type Detections interface {
	DetectionByID(ctx context.Context, id int64) (alerts.DetectionConfig, error)
}

// WorkerPort runs the lease loop until ctx ends
type WorkerPort interface {
	Run(ctx context.Context) error
}

// Outcomes of one job
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)
