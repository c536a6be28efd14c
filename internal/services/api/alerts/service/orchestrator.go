package service

import (
	"context"
	"slices"

	"alertctl/internal/core/document"
	perr "alertctl/internal/platform/errors"
	pstr "alertctl/internal/platform/strings"
	"alertctl/internal/services/api/alerts/domain"
)

const (
	emptyPayloadMsg = "The Yaml Payload in the request is empty."
	missingYAMLMsg  = "%s yaml is missing."
)

// CheckPayload rejects blank documents. Every document operation runs it before
// admission, translation or any store read
func CheckPayload(doc string) error {
	if pstr.Blank(doc) {
		return perr.Validationf(emptyPayloadMsg)
	}
	return nil
}

// checkAlert requires both documents and that the subscription lists the detection
func checkAlert(in domain.AlertInput) error {
	if pstr.Blank(in.Detection) {
		return perr.Validationf(missingYAMLMsg, "Detection")
	}
	if pstr.Blank(in.Subscription) {
		return perr.Validationf(missingYAMLMsg, "Subscription Group")
	}
	det, err := document.ParseDetection(in.Detection)
	if err != nil {
		return err
	}
	sub, err := document.ParseSubscription(in.Subscription)
	if err != nil {
		return err
	}
	if !slices.Contains(sub.DetectionNames, det.DetectionName) {
		return perr.Validationf("You have not subscribed to the alert. Please configure the detectionName under the detectionNames field in your subscription group.")
	}
	return nil
}

// CreateAlert creates the detection, then creates or updates the subscription, then
// queues onboarding. Any failure after the detection was saved deletes the detection,
// and the subscription is deleted when this call created it or restored when it updated it
func (s *Svc) CreateAlert(ctx context.Context, p domain.Principal, in domain.AlertInput) (ids domain.AlertIDs, err error) {
	defer func() { s.m.op(domain.KindAlert, "create", err) }()

	if err := checkAlert(in); err != nil {
		return domain.AlertIDs{}, err
	}

	var (
		detectionID    int64
		subscriptionID int64
		createdSub     bool
		priorSub       *domain.SubscriptionConfig
		done           bool
	)
	defer func() {
		if !done {
			s.rollback(ctx, detectionID, subscriptionID, createdSub, priorSub)
		}
	}()

	detectionID, err = s.createDetection(ctx, p, in.Detection, in.Tuning)
	if err != nil {
		return domain.AlertIDs{}, err
	}

	name, err := document.SubscriptionName(in.Subscription)
	if err != nil {
		return domain.AlertIDs{}, err
	}
	existing, err := s.store.SubscriptionByName(ctx, name)
	switch {
	case err == nil:
		subscriptionID = existing.ID
		if err = s.updateSubscription(ctx, p, existing.ID, in.Subscription); err == nil {
			priorSub = &existing
		}
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		subscriptionID, err = s.createSubscription(ctx, p, in.Subscription)
		createdSub = err == nil
	}
	if err != nil {
		return domain.AlertIDs{}, err
	}

	if err := s.dispatchOnboarding(ctx, detectionID, in.Tuning); err != nil {
		return domain.AlertIDs{}, err
	}
	done = true
	return domain.AlertIDs{DetectionID: detectionID, SubscriptionID: subscriptionID}, nil
}

// rollback deletes the detection, then deletes the subscription this call created or
// writes back the one it updated. Failures are logged and swallowed
func (s *Svc) rollback(ctx context.Context, detectionID, subscriptionID int64, createdSub bool, prior *domain.SubscriptionConfig) {
	ctx = context.WithoutCancel(ctx)
	if detectionID != 0 {
		s.log.Warn().Int64("id", detectionID).Msg("rolling back detection")
		s.countRollback(s.store.DeleteDetection(ctx, detectionID), "detection", detectionID)
	}
	if createdSub && subscriptionID != 0 {
		s.log.Warn().Int64("id", subscriptionID).Msg("rolling back subscription")
		s.countRollback(s.store.DeleteSubscription(ctx, subscriptionID), "subscription", subscriptionID)
	}
	if prior != nil {
		s.log.Warn().Int64("id", prior.ID).Msg("restoring subscription")
		s.countRollback(s.store.UpdateSubscription(ctx, *prior), "subscription", prior.ID)
	}
}

func (s *Svc) countRollback(err error, what string, id int64) {
	if err != nil {
		s.log.Warn().Err(err).Str("resource", what).Int64("id", id).Msg("rollback failed")
		s.m.rollbacks.WithLabelValues("failed").Inc()
		return
	}
	s.m.rollbacks.WithLabelValues("ok").Inc()
}
