package service

import (
	"context"
	"fmt"

	"alertctl/internal/core/document"
	"alertctl/internal/core/window"
	perr "alertctl/internal/platform/errors"
	"alertctl/internal/services/api/alerts/domain"
)

const duplicateMsg = "%s is already taken. Please use a different one."

// buildDetection translates, tunes and validates doc. A non-nil existing keeps its identity
func (s *Svc) buildDetection(ctx context.Context, doc string, tuning domain.TuningRange, existing *domain.DetectionConfig) (domain.DetectionConfig, error) {
	iv := window.Tuning(s.clk.Now(), tuning.Start, tuning.End, s.tuning)

	d, err := s.translator.Detection(ctx, doc)
	if err != nil {
		return domain.DetectionConfig{}, err
	}
	if existing != nil {
		d.ID = existing.ID
		d.LastTimestamp = existing.LastTimestamp
		d.CreatedBy = existing.CreatedBy
		d.CreatedAt = existing.CreatedAt
	}

	if s.tuner != nil {
		if d, err = s.tuner.Tune(ctx, d, iv); err != nil {
			return domain.DetectionConfig{}, err
		}
	}
	if err := s.validator.Detection(ctx, d); err != nil {
		return domain.DetectionConfig{}, err
	}
	return d, nil
}

func (s *Svc) checkDetectionName(ctx context.Context, name string) error {
	_, err := s.store.DetectionByName(ctx, name)
	switch {
	case err == nil:
		return perr.DuplicateKeyf(duplicateMsg, document.KeyDetectionName)
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return nil
	default:
		return err
	}
}

func (s *Svc) checkSubscriptionName(ctx context.Context, name string) error {
	_, err := s.store.SubscriptionByName(ctx, name)
	switch {
	case err == nil:
		return perr.DuplicateKeyf(duplicateMsg, document.KeySubscriptionName)
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return nil
	default:
		return err
	}
}

// duplicate rewrites a unique violation from the store into the duplicate name message,
// covering creates that raced past the lookup
func duplicate(err error, key string) error {
	if perr.IsCode(err, perr.ErrorCodeDuplicateKey) {
		return perr.WithMessage(err, fmt.Sprintf(duplicateMsg, key))
	}
	return err
}

// CreateDetection admits, builds and saves a new detection. Onboarding is not dispatched
func (s *Svc) CreateDetection(ctx context.Context, p domain.Principal, doc string, tuning domain.TuningRange) (id int64, err error) {
	defer func() { s.m.op(domain.KindDetection, "create", err) }()
	return s.createDetection(ctx, p, doc, tuning)
}

func (s *Svc) createDetection(ctx context.Context, p domain.Principal, doc string, tuning domain.TuningRange) (int64, error) {
	if err := CheckPayload(doc); err != nil {
		return 0, err
	}
	if !s.limiter.TryAcquire() {
		s.log.Warn().Float64("qps", s.limiter.QPS()).Msg("onboarding admission rejected")
		return 0, perr.ServerBusyf("Server is busy handling create detection requests. Please retry later. QPS quota: %f", s.limiter.QPS())
	}

	d, err := s.buildDetection(ctx, doc, tuning, nil)
	if err != nil {
		return 0, err
	}
	if err := s.checkDetectionName(ctx, d.Name); err != nil {
		return 0, err
	}
	d.CreatedBy = p.Name
	d.UpdatedBy = p.Name

	id, err := s.store.SaveDetection(ctx, d)
	if err != nil {
		return 0, duplicate(err, document.KeyDetectionName)
	}
	s.log.Info().Int64("id", id).Str("name", d.Name).Msg("detection created")
	return id, nil
}

// UpdateDetection rebuilds detection id from doc keeping its identity.
// When doc sets active to false the stored config is deactivated even if the rebuild fails
func (s *Svc) UpdateDetection(ctx context.Context, p domain.Principal, id int64, doc string, tuning domain.TuningRange) (err error) {
	defer func() { s.m.op(domain.KindDetection, "update", err) }()
	return s.updateDetection(ctx, p, id, doc, tuning)
}

func (s *Svc) updateDetection(ctx context.Context, p domain.Principal, id int64, doc string, tuning domain.TuningRange) (err error) {
	if err := CheckPayload(doc); err != nil {
		return err
	}
	existing, err := s.store.DetectionByID(ctx, id)
	if err != nil {
		return notFound(err, "Cannot find detection pipeline %d", id)
	}
	if err := s.authorize(ctx, p, id, domain.KindDetection); err != nil {
		return err
	}

	defer func() {
		if !document.ExplicitlyInactive(doc) {
			return
		}
		existing.Active = false
		existing.YAML = doc
		existing.UpdatedBy = p.Name
		if uerr := s.store.UpdateDetection(ctx, existing); uerr != nil {
			s.log.Warn().Err(uerr).Int64("id", id).Msg("deactivate detection failed")
			if err == nil {
				err = uerr
			}
		}
	}()

	updated, err := s.buildDetection(ctx, doc, tuning, &existing)
	if err != nil {
		return err
	}
	if updated.Name != existing.Name {
		if err := s.checkDetectionName(ctx, updated.Name); err != nil {
			return err
		}
	}
	updated.UpdatedBy = p.Name
	if err := s.store.UpdateDetection(ctx, updated); err != nil {
		return duplicate(err, document.KeyDetectionName)
	}
	s.log.Info().Int64("id", id).Str("name", updated.Name).Msg("detection updated")
	return nil
}

// CreateOrUpdateDetection updates the detection named in doc, or creates it and
// dispatches onboarding over the default windows
func (s *Svc) CreateOrUpdateDetection(ctx context.Context, p domain.Principal, doc string) (id int64, err error) {
	defer func() { s.m.op(domain.KindDetection, "create_or_update", err) }()

	if err := CheckPayload(doc); err != nil {
		return 0, err
	}

	name, err := document.DetectionName(doc)
	if err != nil {
		return 0, err
	}
	existing, err := s.store.DetectionByName(ctx, name)
	switch {
	case err == nil:
		return existing.ID, s.updateDetection(ctx, p, existing.ID, doc, domain.TuningRange{})
	case !perr.IsCode(err, perr.ErrorCodeNotFound):
		return 0, err
	}

	id, err = s.createDetection(ctx, p, doc, domain.TuningRange{})
	if err != nil {
		return 0, err
	}
	if err := s.dispatchOnboarding(ctx, id, domain.TuningRange{}); err != nil {
		return id, err
	}
	return id, nil
}

// CreateSubscription translates, validates and saves a new subscription group
func (s *Svc) CreateSubscription(ctx context.Context, p domain.Principal, doc string) (id int64, err error) {
	defer func() { s.m.op(domain.KindSubscription, "create", err) }()
	return s.createSubscription(ctx, p, doc)
}

func (s *Svc) createSubscription(ctx context.Context, p domain.Principal, doc string) (int64, error) {
	if err := CheckPayload(doc); err != nil {
		return 0, err
	}
	sub, err := s.translator.Subscription(ctx, doc)
	if err != nil {
		return 0, err
	}
	if err := s.validator.Subscription(ctx, sub); err != nil {
		return 0, err
	}
	if err := s.checkSubscriptionName(ctx, sub.Name); err != nil {
		return 0, err
	}

	sub.VectorClocks = mergeClocks(nil, sub.DetectionIDs, s.clk.Now().UnixMilli())
	sub.CreatedBy = p.Name
	sub.UpdatedBy = p.Name

	id, err := s.store.SaveSubscription(ctx, sub)
	if err != nil {
		return 0, duplicate(err, document.KeySubscriptionName)
	}
	s.log.Info().Int64("id", id).Str("name", sub.Name).Msg("subscription created")
	return id, nil
}

// UpdateSubscription rebuilds subscription id from doc. Watermarks of detections it
// already referenced carry over; newly referenced detections start at now
func (s *Svc) UpdateSubscription(ctx context.Context, p domain.Principal, id int64, doc string) (err error) {
	defer func() { s.m.op(domain.KindSubscription, "update", err) }()
	return s.updateSubscription(ctx, p, id, doc)
}

func (s *Svc) updateSubscription(ctx context.Context, p domain.Principal, id int64, doc string) error {
	if err := CheckPayload(doc); err != nil {
		return err
	}
	old, err := s.store.SubscriptionByID(ctx, id)
	if err != nil {
		return notFound(err, "Cannot find subscription group %d", id)
	}
	if err := s.authorize(ctx, p, id, domain.KindSubscription); err != nil {
		return err
	}

	sub, err := s.translator.Subscription(ctx, doc)
	if err != nil {
		return err
	}
	sub.ID = old.ID
	sub.CreatedBy = old.CreatedBy
	sub.CreatedAt = old.CreatedAt
	sub.UpdatedBy = p.Name
	sub.VectorClocks = mergeClocks(old.VectorClocks, sub.DetectionIDs, s.clk.Now().UnixMilli())

	if err := s.validator.Subscription(ctx, sub); err != nil {
		return err
	}
	if sub.Name != old.Name {
		if err := s.checkSubscriptionName(ctx, sub.Name); err != nil {
			return err
		}
	}
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return duplicate(err, document.KeySubscriptionName)
	}
	s.log.Info().Int64("id", id).Str("name", sub.Name).Msg("subscription updated")
	return nil
}

// mergeClocks keeps the old watermark of every id still referenced and seeds the rest with now.
// Ids no longer referenced are dropped
func mergeClocks(old map[int64]int64, ids []int64, now int64) map[int64]int64 {
	out := make(map[int64]int64, len(ids))
	for _, id := range ids {
		if ts, ok := old[id]; ok {
			out[id] = ts
			continue
		}
		out[id] = now
	}
	return out
}

// CreateOrUpdateSubscription updates the group named in doc, or creates it
func (s *Svc) CreateOrUpdateSubscription(ctx context.Context, p domain.Principal, doc string) (id int64, err error) {
	defer func() { s.m.op(domain.KindSubscription, "create_or_update", err) }()

	if err := CheckPayload(doc); err != nil {
		return 0, err
	}

	name, err := document.SubscriptionName(doc)
	if err != nil {
		return 0, err
	}
	existing, err := s.store.SubscriptionByName(ctx, name)
	switch {
	case err == nil:
		return existing.ID, s.updateSubscription(ctx, p, existing.ID, doc)
	case !perr.IsCode(err, perr.ErrorCodeNotFound):
		return 0, err
	}
	return s.createSubscription(ctx, p, doc)
}

// notFound replaces the store's generic not-found message with one naming the resource
func notFound(err error, format string, a ...any) error {
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return perr.NotFoundf(format, a...)
	}
	return err
}
