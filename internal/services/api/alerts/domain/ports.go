package domain

import (
	"context"

	"alertctl/internal/core/engine"
	"alertctl/internal/core/window"
)

// ServicePort is the interface implemented by the alerts service
type ServicePort interface {
	CreateAlert(ctx context.Context, p Principal, in AlertInput) (AlertIDs, error)

	CreateDetection(ctx context.Context, p Principal, doc string, tuning TuningRange) (int64, error)
	UpdateDetection(ctx context.Context, p Principal, id int64, doc string, tuning TuningRange) error
	CreateOrUpdateDetection(ctx context.Context, p Principal, doc string) (int64, error)

	CreateSubscription(ctx context.Context, p Principal, doc string) (int64, error)
	UpdateSubscription(ctx context.Context, p Principal, id int64, doc string) error
	CreateOrUpdateSubscription(ctx context.Context, p Principal, doc string) (int64, error)

	Preview(ctx context.Context, in PreviewInput) (engine.Result, error)
	Baseline(ctx context.Context, in BaselineInput) (engine.Prediction, error)

	ToggleActivation(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, q ListQuery) ([]ListedDetection, error)
	Notify(ctx context.Context, subscriptionID int64) error

	// ResolveSession maps a bearer session key to its principal name
	ResolveSession(ctx context.Context, key string) (string, error)
}

// Store is the configuration store. Lookups of missing rows fail with a NotFound *perr.Error
type Store interface {
	DetectionByID(ctx context.Context, id int64) (DetectionConfig, error)
	DetectionByName(ctx context.Context, name string) (DetectionConfig, error)
	SaveDetection(ctx context.Context, d DetectionConfig) (int64, error)
	UpdateDetection(ctx context.Context, d DetectionConfig) error
	DeleteDetection(ctx context.Context, id int64) error
	RecentDetections(ctx context.Context, limit int) ([]DetectionConfig, error)

	SubscriptionByID(ctx context.Context, id int64) (SubscriptionConfig, error)
	SubscriptionByName(ctx context.Context, name string) (SubscriptionConfig, error)
	SaveSubscription(ctx context.Context, s SubscriptionConfig) (int64, error)
	UpdateSubscription(ctx context.Context, s SubscriptionConfig) error
	DeleteSubscription(ctx context.Context, id int64) error

	CreateTask(ctx context.Context, t Task) (int64, error)

	SessionByKey(ctx context.Context, key string) (Session, error)
}

// Translator turns a raw document into a config. Semantic problems are Validation errors
type Translator interface {
	Detection(ctx context.Context, doc string) (DetectionConfig, error)
	Subscription(ctx context.Context, doc string) (SubscriptionConfig, error)
}

// Tuner injects parameters computed from history over the tuning interval
type Tuner interface {
	Tune(ctx context.Context, d DetectionConfig, iv window.Interval) (DetectionConfig, error)
}

// Validator runs semantic checks on translated configs
type Validator interface {
	Detection(ctx context.Context, d DetectionConfig) error
	Subscription(ctx context.Context, s SubscriptionConfig) error
}

// Engine runs detections. Both calls must return promptly once ctx is done
type Engine interface {
	Run(ctx context.Context, p engine.Pipeline, iv window.Interval) (engine.Result, error)
	Predict(ctx context.Context, c engine.Component, dataset, metric string, iv window.Interval) (engine.Prediction, error)
}

// Auditor records preview outcomes. Optional
type Auditor interface {
	Record(ctx context.Context, run PreviewRun) error
}
