package chest

import (
	"math"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"
)

// Selector draws reward definitions proportionally to their effective weight.
type Selector struct {
	rng RandomSource
}

// NewSelector returns a selector; a nil source means DefaultRNG.
func NewSelector(rng RandomSource) *Selector {
	if rng == nil {
		rng = DefaultRNG()
	}
	return &Selector{rng: rng}
}

// EffectiveWeights applies the boost chance bonuses to the catalog weights.
// When every weight is zero the draw falls back to uniform.
func EffectiveWeights(defs []models.RewardDefinition, boost *models.BoostState) []float64 {
	weights := make([]float64, len(defs))
	for i, d := range defs {
		weights[i] = nonNegative(d.ChancePct)
	}

	if boost != nil {
		addBonus(defs, weights, models.CategoryHuge, boost.HugeChanceBonus)
		addBonus(defs, weights, models.CategoryTitanic, boost.TitanicChanceBonus)
	}

	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 || math.IsInf(sum, 0) {
		for i := range weights {
			weights[i] = 1
		}
	}
	return weights
}

// addBonus adds bonus to the first definition of the category.
func addBonus(defs []models.RewardDefinition, weights []float64, c models.Category, bonus float64) {
	bonus = nonNegative(bonus)
	if bonus == 0 {
		return
	}
	for i, d := range defs {
		if normalizeCategory(d.Category) == c {
			weights[i] += bonus
			return
		}
	}
}

// Pick performs one roulette-wheel draw.
func (s *Selector) Pick(defs []models.RewardDefinition, boost *models.BoostState) (models.RewardDefinition, error) {
	if len(defs) == 0 {
		return models.RewardDefinition{}, apperr.New(apperr.KindMisconfigured, "chest has no rewards configured")
	}

	weights := EffectiveWeights(defs, boost)
	var total float64
	for _, w := range weights {
		total += w
	}

	// Zero-weight entries are never drawn, even for a roll of exactly 0.
	roll := s.rng.Float64() * total
	last := len(defs) - 1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		roll -= w
		if roll <= 0 {
			return defs[i], nil
		}
	}
	return defs[last], nil
}

func normalizeCategory(c models.Category) models.Category {
	n, _ := models.ParseCategory(string(c))
	return n
}
