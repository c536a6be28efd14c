package domain

import "time"

// TuningRange is the tuning window from the query string; zero on both ends means the default
type TuningRange struct {
	Start int64
	End   int64
}

// AlertInput is the create-alert body: one detection and one subscription document
type AlertInput struct {
	Detection    string `json:"detection"    example:"detectionName: revenue_drop\n..."`
	Subscription string `json:"subscription" example:"subscriptionGroupName: revenue_team\n..."`

	Tuning TuningRange `json:"-"`
}

// AlertIDs are the ids create-alert saved
type AlertIDs struct {
	DetectionID    int64
	SubscriptionID int64
}

// PreviewInput asks for a dry run of a detection document
type PreviewInput struct {
	Document string
	// ExistingID previews against a saved detection's identity when non-zero
	ExistingID  int64
	Start       int64
	End         int64
	TuningStart int64
	TuningEnd   int64
}

// BaselineInput asks for the predicted series of one baseline-capable rule
type BaselineInput struct {
	Document    string
	Start       int64
	End         int64
	TuningStart int64
	TuningEnd   int64
	// URN is "<dataset>:<metric>", defaulting to the document's own metric
	URN string
	// RuleName picks the first baseline rule whose key starts with it; empty picks the first
	RuleName string
}

// ListQuery filters the deprecated list endpoint
type ListQuery struct {
	Dataset string
	Metric  string
}

// ListedDetection is a detection as returned by the list endpoint
type ListedDetection struct {
	ID            int64     `json:"id"            example:"42"`
	Name          string    `json:"detectionName" example:"revenue_drop"`
	Description   string    `json:"description,omitempty"`
	DatasetNames  []string  `json:"datasetNames"  example:"orders"`
	Metric        string    `json:"metric"        example:"revenue"`
	Active        bool      `json:"active"        example:"true"`
	Owners        []string  `json:"owners"`
	CreatedBy     string    `json:"createdBy,omitempty" example:"alice@example.com"`
	LastTimestamp int64     `json:"lastTimestamp" example:"-1"`
	UpdatedAt     time.Time `json:"updatedAt"`
	YAML          string    `json:"yaml"`
}

// Reply is the message map every mutating endpoint answers with
type Reply struct {
	Message              string `json:"message"                          example:"Alert was created successfully."`
	MoreInfo             string `json:"more-info,omitempty"              example:"Record saved with id 42"`
	DetectionConfigID    string `json:"detectionConfigId,omitempty"      example:"42"`
	SubscriptionConfigID string `json:"subscriptionConfigId,omitempty"   example:"7"`
	DetectionAlertConfID string `json:"detectionAlertConfigId,omitempty" example:"7"`
}
