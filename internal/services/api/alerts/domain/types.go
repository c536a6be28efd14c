// Package domain holds alert configuration types independent of transport or storage
package domain

import (
	"time"

	"alertctl/internal/core/engine"
)

// PreviewID is the identity given to configs built for a preview; they are never saved
const PreviewID int64 = 1<<63 - 1

// Kind names the resource a request acts on
type Kind string

const (
	// KindDetection is a detection config
	KindDetection Kind = "detection"

	// KindSubscription is a subscription group config
	KindSubscription Kind = "subscription"

	// KindAlert is the detection and subscription pair created by create-alert
	KindAlert Kind = "alert"
)

// PrincipalType classifies a session
type PrincipalType string

const (
	// PrincipalUser is a human session
	PrincipalUser PrincipalType = "USER"

	// PrincipalService is an automated caller; its writes are owner-checked
	PrincipalService PrincipalType = "SERVICE"
)

// Principal is the caller of a request
type Principal struct {
	Name       string
	SessionKey string
}

// Session is a stored bearer session
type Session struct {
	Key        string
	Principal  string
	Type       PrincipalType
	Expiration int64 // epoch ms
}

// DetectionConfig is a persisted anomaly detection
type DetectionConfig struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	Dataset       string             `json:"dataset"`
	Metric        string             `json:"metric"`
	Active        bool               `json:"active"`
	Owners        []string           `json:"owners"`
	YAML          string             `json:"yaml"`
	Components    []engine.Component `json:"components"`
	LastTimestamp int64              `json:"lastTimestamp"`
	CreatedBy     string             `json:"createdBy,omitempty"`
	UpdatedBy     string             `json:"updatedBy,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Pipeline is the runnable form of the config
func (d DetectionConfig) Pipeline() engine.Pipeline {
	return engine.Pipeline{
		ID:         d.ID,
		Name:       d.Name,
		Dataset:    d.Dataset,
		Metric:     d.Metric,
		Components: d.Components,
	}
}

// SubscriptionConfig is a persisted notification group
type SubscriptionConfig struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Application    string          `json:"application,omitempty"`
	Active         bool            `json:"active"`
	Owners         []string        `json:"owners"`
	YAML           string          `json:"yaml"`
	DetectionNames []string        `json:"detectionNames"`
	DetectionIDs   []int64         `json:"detectionConfigIds"`
	VectorClocks   map[int64]int64 `json:"vectorClocks"`
	CreatedBy      string          `json:"createdBy,omitempty"`
	UpdatedBy      string          `json:"updatedBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Task types and states
const (
	TaskOnboard      = "DETECTION_ONBOARD"
	TaskNotification = "NOTIFICATION"

	TaskPending   = "PENDING"
	TaskRunning   = "RUNNING"
	TaskCompleted = "COMPLETED"
	TaskFailed    = "FAILED"
)

// OnboardingTaskInfo is the payload of a DETECTION_ONBOARD task
type OnboardingTaskInfo struct {
	ConfigID    int64 `json:"configId"`
	TuningStart int64 `json:"tuningWindowStart"`
	TuningEnd   int64 `json:"tuningWindowEnd"`
	Start       int64 `json:"start"`
	End         int64 `json:"end"`
	SubmittedAt int64 `json:"submittedAt"`
}

// NotificationTaskInfo is the payload of a NOTIFICATION task
type NotificationTaskInfo struct {
	SubscriptionID int64 `json:"detectionAlertConfigId"`
	SubmittedAt    int64 `json:"submittedAt"`
}

// Task is a queued background job
type Task struct {
	ID      int64
	JobName string
	Type    string
	Status  string
	Info    []byte // JSON of one of the *TaskInfo types
}

// PreviewRun is one preview outcome, appended to the audit table
type PreviewRun struct {
	RunID     string
	Detection string
	Outcome   string
	Elapsed   time.Duration
	Anomalies int
	At        time.Time
}

// Preview outcomes
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeTimeout = "timeout"
	OutcomeFailed  = "failed"
	OutcomeBusy    = "busy"
)
