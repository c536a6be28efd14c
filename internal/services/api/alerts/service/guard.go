package service

import (
	"context"
	"slices"

	perr "alertctl/internal/platform/errors"
	"alertctl/internal/services/api/alerts/domain"
)

// isServiceAccount reports whether p holds a SERVICE session
func (s *Svc) isServiceAccount(ctx context.Context, p domain.Principal) (bool, error) {
	if p.SessionKey == "" {
		return false, nil
	}
	sess, err := s.store.SessionByKey(ctx, p.SessionKey)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.Type == domain.PrincipalService, nil
}

// authorize lets human callers through. Service accounts must be listed in the
// target's owners
func (s *Svc) authorize(ctx context.Context, p domain.Principal, id int64, kind domain.Kind) error {
	svc, err := s.isServiceAccount(ctx, p)
	if err != nil || !svc {
		return err
	}

	var owners []string
	switch kind {
	case domain.KindDetection:
		d, err := s.store.DetectionByID(ctx, id)
		if err != nil {
			return err
		}
		owners = d.Owners
	case domain.KindSubscription:
		sub, err := s.store.SubscriptionByID(ctx, id)
		if err != nil {
			return err
		}
		owners = sub.Owners
	}

	if p.Name == "" {
		return perr.Invariantf("Unable to retrieve the user name from the request")
	}
	if !slices.Contains(owners, p.Name) {
		s.log.Warn().Str("principal", p.Name).Str("kind", string(kind)).Int64("id", id).Msg("service account not an owner")
		return perr.Unauthorizedf("Service account %s is not authorized to access this resource.", p.Name)
	}
	s.log.Info().Str("principal", p.Name).Msg("service account authorized")
	return nil
}
