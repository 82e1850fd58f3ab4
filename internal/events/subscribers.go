package events

import (
	"context"
	"fmt"

	"chest-rewards-api/internal/metrics"

	"github.com/sirupsen/logrus"
)

// RegisterDefaults wires the metrics and audit-log subscribers.
func RegisterDefaults(m *Manager, log logrus.FieldLogger) {
	m.Subscribe(EventChestOpened, func(ctx context.Context, e Event) error {
		d, ok := e.Data.(ChestOpenedData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		metrics.RecordChestOpen(string(d.Reward.Category))
		if d.Reward.Category.IsPet() {
			log.WithFields(logrus.Fields{
				"username": d.Username,
				"type":     d.Reward.Category,
				"item_id":  d.ItemID,
			}).Info("pet dropped")
		}
		return nil
	})

	m.Subscribe(EventChestMultiOpened, func(ctx context.Context, e Event) error {
		d, ok := e.Data.(ChestMultiOpenedData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		for _, r := range d.Result.Results {
			metrics.RecordChestOpen(string(r.Reward.Category))
		}
		metrics.RecordMultiOpen(d.Result.StoppedReason)
		log.WithFields(logrus.Fields{
			"username":  d.Username,
			"requested": d.Result.CountRequested,
			"opened":    d.Result.CountOpened,
			"stopped":   d.Result.StoppedReason,
		}).Info("multi-open finished")
		return nil
	})

	m.Subscribe(EventBoostInstalled, func(ctx context.Context, e Event) error {
		d, ok := e.Data.(BoostInstalledData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		metrics.RecordBoostInstalled()
		log.WithFields(logrus.Fields{
			"admin":      d.Admin,
			"multiplier": d.Boost.GlobalMultiplier,
			"expires_at": d.Boost.ExpiresAt,
		}).Info("boost installed")
		return nil
	})

	m.Subscribe(EventPetClaimed, func(ctx context.Context, e Event) error {
		if _, ok := e.Data.(PetClaimedData); !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		metrics.RecordClaim()
		return nil
	})

	m.Subscribe(EventPetConverted, func(ctx context.Context, e Event) error {
		d, ok := e.Data.(PetConvertedData)
		if !ok {
			return fmt.Errorf("unexpected payload %T", e.Data)
		}
		metrics.RecordConversion(d.Result.Mode, d.Result.Converted, d.Result.Total)
		log.WithFields(logrus.Fields{
			"username":  d.Username,
			"mode":      d.Result.Mode,
			"converted": d.Result.Converted,
			"total":     d.Result.Total,
		}).Info("pets converted")
		return nil
	})
}
