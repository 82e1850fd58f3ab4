package service

import (
	"context"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/chest"
	"chest-rewards-api/internal/features"
	"chest-rewards-api/internal/models"
	"chest-rewards-api/internal/tracing"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Open performs one paid chest open for the caller.
func (s *Service) Open(ctx context.Context, id models.Identity) (res models.OpenResult, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.Open", attribute.String("user", id.Username))
	defer func() { tracing.End(span, err) }()

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		var openErr error
		res, openErr = s.engine.Open(econ, id.Username)
		return openErr
	})
	if err != nil {
		s.logFault(err, "chest open failed", id.Username)
		return models.OpenResult{}, err
	}

	span.SetAttributes(attribute.String("reward.type", string(res.Reward.Category)))
	s.invalidateFeed(ctx)
	s.events.PublishChestOpened(ctx, id.Username, res)
	return res, nil
}

// OpenMulti performs up to count opens in one critical section.
func (s *Service) OpenMulti(ctx context.Context, id models.Identity, count int64) (res models.MultiOpenResult, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.OpenMulti",
		attribute.String("user", id.Username),
		attribute.Int64("count", count),
	)
	defer func() { tracing.End(span, err) }()

	if err = s.flags.Require(features.MultiOpen); err != nil {
		return models.MultiOpenResult{}, err
	}

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		var openErr error
		res, openErr = s.engine.OpenMulti(econ, id.Username, count)
		return openErr
	})
	if err != nil {
		s.logFault(err, "multi-open failed", id.Username)
		return models.MultiOpenResult{}, err
	}

	span.SetAttributes(
		attribute.Int64("opened", res.CountOpened),
		attribute.String("stopped_reason", res.StoppedReason),
	)
	if res.CountOpened > 0 {
		s.invalidateFeed(ctx)
	}
	if res.StoppedReason == chest.StopInternalError {
		s.log.WithFields(logrus.Fields{
			"username": id.Username,
			"opened":   res.CountOpened,
		}).Error("multi-open stopped by internal fault")
	}
	s.events.PublishChestMultiOpened(ctx, id.Username, res)
	return res, nil
}

// Feed returns the newest opens across all users.
func (s *Service) Feed(ctx context.Context) (items []models.FeedItem, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.Feed")
	defer func() { tracing.End(span, err) }()

	useCache := s.feed != nil && s.flags.IsEnabled(features.FeedCache)
	if useCache {
		cached, ok, cerr := s.feed.Get(ctx)
		if cerr != nil {
			s.log.WithError(cerr).Warn("feed cache read failed")
		} else if ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	// The cache is filled under the store lock so an open's invalidation
	// always lands after it.
	err = s.store.View(ctx, func(econ *models.Economy) error {
		items = econ.GlobalFeed(models.GlobalFeedLimit)
		if useCache {
			if cerr := s.feed.Set(ctx, items); cerr != nil {
				s.log.WithError(cerr).Warn("feed cache write failed")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SetBoost installs a new global boost, replacing any active one.
func (s *Service) SetBoost(ctx context.Context, admin models.Identity, in models.BoostInput) (boost models.BoostState, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.SetBoost", attribute.String("admin", admin.Username))
	defer func() { tracing.End(span, err) }()

	boost, err = chest.NewBoost(in.GlobalMultiplier, in.HugeChanceBonus, in.TitanicChanceBonus,
		in.TokenBonus, in.DurationMinutes, s.engine.Now())
	if err != nil {
		return models.BoostState{}, err
	}

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		econ.Chest.Boosts = boost
		econ.TouchSettings()
		return nil
	})
	if err != nil {
		return models.BoostState{}, err
	}

	s.events.PublishBoostInstalled(ctx, admin.Username, boost)
	return boost, nil
}

// SetPetValues updates the conversion rates. Non-positive values leave the
// current rate unchanged.
func (s *Service) SetPetValues(ctx context.Context, admin models.Identity, hugeToGems, titanicToGems int64) (values models.PetValueTable, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.SetPetValues", attribute.String("admin", admin.Username))
	defer func() { tracing.End(span, err) }()

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		pv := &econ.Chest.PetValues
		if hugeToGems > 0 {
			pv.HugeToGems = hugeToGems
		}
		if titanicToGems > 0 {
			pv.TitanicToGems = titanicToGems
		}
		econ.TouchSettings()
		values = *pv
		return nil
	})
	if err != nil {
		return models.PetValueTable{}, err
	}

	s.log.WithFields(logrus.Fields{
		"admin":           admin.Username,
		"huge_to_gems":    values.HugeToGems,
		"titanic_to_gems": values.TitanicToGems,
	}).Info("pet values updated")
	return values, nil
}

// ResetRewards restores the default catalog and jackpot ceiling.
func (s *Service) ResetRewards(ctx context.Context, admin models.Identity) (res models.ResetResult, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.ResetRewards", attribute.String("admin", admin.Username))
	defer func() { tracing.End(span, err) }()

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		econ.Chest.Rewards = append([]models.RewardDefinition(nil), s.defaults.Rewards...)
		econ.Chest.JackpotMaxGems = s.defaults.JackpotMaxGems
		econ.TouchSettings()
		res = models.ResetResult{
			Rewards:        append([]models.RewardDefinition(nil), econ.Chest.Rewards...),
			JackpotMaxGems: econ.Chest.JackpotMaxGems,
		}
		return nil
	})
	if err != nil {
		return models.ResetResult{}, err
	}

	s.log.WithField("admin", admin.Username).Info("chest rewards reset to defaults")
	return res, nil
}

// logFault logs errors that are not the caller's fault.
func (s *Service) logFault(err error, msg, username string) {
	switch apperr.KindOf(err) {
	case apperr.KindInternal, apperr.KindMisconfigured:
		s.log.WithError(err).WithField("username", username).Error(msg)
	}
}
