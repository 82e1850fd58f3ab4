package chest

import (
	"math"
	"time"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"
)

// MaxBoostMinutes is the longest boost an admin can install.
const MaxBoostMinutes = 24 * 60

// maxTokenBonus keeps token arithmetic far from int64 overflow.
const maxTokenBonus = 1 << 52

// NewBoost builds an active boost. Invalid modifiers fall back to neutral
// values instead of failing; only the duration is enforced.
func NewBoost(multiplier, hugeBonus, titanicBonus, tokenBonus, durationMinutes float64, now time.Time) (models.BoostState, error) {
	if !finite(durationMinutes) || durationMinutes < 1 || durationMinutes > MaxBoostMinutes {
		return models.BoostState{}, apperr.InvalidInput("durationMinutes must be 1-%d", MaxBoostMinutes)
	}

	gm := multiplier
	if !finite(gm) || gm <= 0 {
		gm = 1
	}

	return models.BoostState{
		Active:             true,
		ExpiresAt:          now.UnixMilli() + int64(math.Floor(durationMinutes*60*1000)),
		GlobalMultiplier:   gm,
		HugeChanceBonus:    nonNegative(hugeBonus),
		TitanicChanceBonus: nonNegative(titanicBonus),
		TokenBonus:         int64(math.Floor(min(nonNegative(tokenBonus), maxTokenBonus))),
	}, nil
}

// ActiveBoost returns the current boost or nil. An expired boost is reset to
// the inactive default in place and the settings are marked dirty.
func ActiveBoost(econ *models.Economy, now time.Time) *models.BoostState {
	b := &econ.Chest.Boosts
	if !b.Active {
		return nil
	}
	if b.ExpiresAt != 0 && now.UnixMilli() > b.ExpiresAt {
		*b = models.InactiveBoost()
		econ.TouchSettings()
		return nil
	}
	boost := *b
	return &boost
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func nonNegative(f float64) float64 {
	if !finite(f) || f < 0 {
		return 0
	}
	return f
}
