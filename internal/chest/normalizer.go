package chest

import (
	"math"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"
)

// TokenChunk is the rounding unit of token payouts.
const TokenChunk = 500

// ChunkTokens rounds x down to a multiple of TokenChunk, never below one
// chunk for positive x.
func ChunkTokens(x int64) int64 {
	if x <= 0 {
		return 0
	}
	return max(TokenChunk, x/TokenChunk*TokenChunk)
}

// Normalize turns a drawn definition into a concrete reward. Gem payouts are
// capped at jackpotMax whatever the multiplier.
func Normalize(def models.RewardDefinition, boost *models.BoostState, jackpotMax int64) (models.Reward, error) {
	mult, tokenBonus := 1.0, int64(0)
	if boost != nil {
		if finite(boost.GlobalMultiplier) && boost.GlobalMultiplier > 0 {
			mult = boost.GlobalMultiplier
		}
		tokenBonus = min(max(boost.TokenBonus, 0), maxTokenBonus)
	}
	if jackpotMax <= 0 {
		jackpotMax = DefaultJackpotMaxGems
	}

	switch normalizeCategory(def.Category) {
	case models.CategoryGems:
		amount := min(scale(max(def.Amount, 0), mult), jackpotMax)
		return models.NewCurrencyReward(withCategory(def, models.CategoryGems), amount)
	case models.CategoryTokens:
		amount := ChunkTokens(scale(max(def.Amount, 0), mult) + tokenBonus)
		return models.NewCurrencyReward(withCategory(def, models.CategoryTokens), amount)
	case models.CategoryHuge:
		return models.NewPetReward(withCategory(def, models.CategoryHuge))
	case models.CategoryTitanic:
		return models.NewPetReward(withCategory(def, models.CategoryTitanic))
	}
	return models.Reward{}, apperr.New(apperr.KindMisconfigured, "reward %q has unknown type %q", def.ID, def.Category)
}

// scale multiplies and floors, saturating instead of overflowing.
func scale(amount int64, mult float64) int64 {
	v := math.Floor(float64(amount) * mult)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= math.MaxInt64/2 {
		return math.MaxInt64 / 2
	}
	return int64(v)
}

func withCategory(def models.RewardDefinition, c models.Category) models.RewardDefinition {
	def.Category = c
	return def
}
