package service

import (
	"context"
	"fmt"
	"strings"

	"alertctl/internal/core/document"
	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/services/api/alerts/domain"
)

// Documents is the YAML implementation of the Translator, Tuner and Validator ports
type Documents struct {
	store domain.Store
	tuner *document.Tuner
}

var (
	_ domain.Translator = (*Documents)(nil)
	_ domain.Validator  = DocumentValidator{}
	_ domain.Tuner      = DocumentTuner{}
)

// NewDocuments returns the document adapters. store resolves subscription detection names;
// tuner may be nil
func NewDocuments(store domain.Store, tuner *document.Tuner) *Documents {
	if store == nil {
		panic("alerts.Documents requires a non nil Store")
	}
	return &Documents{store: store, tuner: tuner}
}

// Validator returns the semantic checks sharing this store
func (d *Documents) Validator() DocumentValidator { return DocumentValidator{store: d.store} }

// Tuner returns the history based tuner
func (d *Documents) Tuner() DocumentTuner { return DocumentTuner{t: d.tuner} }

// Detection parses doc into an unsaved config. The raw document is kept as-is
func (d *Documents) Detection(_ context.Context, doc string) (domain.DetectionConfig, error) {
	parsed, err := document.ParseDetection(doc)
	if err != nil {
		return domain.DetectionConfig{}, err
	}
	return domain.DetectionConfig{
		Name:          parsed.DetectionName,
		Description:   parsed.Description,
		Dataset:       parsed.Dataset,
		Metric:        parsed.Metric,
		Active:        parsed.IsActive(),
		Owners:        parsed.Owners,
		YAML:          doc,
		Components:    parsed.Components(),
		LastTimestamp: -1,
	}, nil
}

// Subscription parses doc and resolves detection names to ids. Names that do not
// resolve are left for the validator to report
func (d *Documents) Subscription(ctx context.Context, doc string) (domain.SubscriptionConfig, error) {
	parsed, err := document.ParseSubscription(doc)
	if err != nil {
		return domain.SubscriptionConfig{}, err
	}
	ids := make([]int64, 0, len(parsed.DetectionNames))
	for _, name := range parsed.DetectionNames {
		det, err := d.store.DetectionByName(ctx, name)
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			continue
		}
		if err != nil {
			return domain.SubscriptionConfig{}, err
		}
		ids = append(ids, det.ID)
	}
	return domain.SubscriptionConfig{
		Name:           parsed.SubscriptionGroupName,
		Application:    parsed.Application,
		Active:         parsed.IsActive(),
		Owners:         parsed.Owners,
		YAML:           doc,
		DetectionNames: parsed.DetectionNames,
		DetectionIDs:   ids,
		VectorClocks:   map[int64]int64{},
	}, nil
}

// DocumentTuner injects tuned baseline parameters into a config
type DocumentTuner struct{ t *document.Tuner }

// Tune runs the document tuner over the config's components
func (dt DocumentTuner) Tune(ctx context.Context, d domain.DetectionConfig, iv window.Interval) (domain.DetectionConfig, error) {
	comps, err := dt.t.Tune(ctx, d.Dataset, d.Metric, d.Components, iv)
	if err != nil {
		return domain.DetectionConfig{}, err
	}
	d.Components = comps
	return d, nil
}

// DocumentValidator runs the document checks plus cross-resource ones
type DocumentValidator struct{ store domain.Store }

// Detection checks the raw document and the tuned components
func (v DocumentValidator) Detection(_ context.Context, d domain.DetectionConfig) error {
	parsed, err := document.ParseDetection(d.YAML)
	if err != nil {
		return err
	}
	if err := document.CheckDetection(parsed); err != nil {
		return err
	}
	for _, c := range d.Components {
		if std, ok := c.Params["std"]; ok && std < 0 {
			return perr.Validationf("component %s has a negative std", c.Key)
		}
	}
	return nil
}

// Subscription checks the raw document and that every referenced detection exists
func (v DocumentValidator) Subscription(ctx context.Context, s domain.SubscriptionConfig) error {
	parsed, err := document.ParseSubscription(s.YAML)
	if err != nil {
		return err
	}
	if err := document.CheckSubscription(parsed); err != nil {
		return err
	}
	var missing []string
	for _, name := range s.DetectionNames {
		_, err := v.store.DetectionByName(ctx, name)
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return err
		}
	}
	if len(missing) > 0 {
		msg := fmt.Sprintf("Cannot find detection %s referenced by the subscription group", missing[0])
		return perr.Validation(msg, "unknown detections: "+strings.Join(missing, ", "))
	}
	return nil
}
