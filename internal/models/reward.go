package models

import "chest-rewards-api/internal/apperr"

// Reward is a concrete chest payout. Currency rewards carry an amount; pet
// rewards are paid as an inventory item and keep the catalog amount only for
// display.
type Reward struct {
	Category Category `json:"type"`
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Amount   int64    `json:"amount"`
}

// NewCurrencyReward builds a gems or tokens reward.
func NewCurrencyReward(def RewardDefinition, amount int64) (Reward, error) {
	if !def.Category.IsCurrency() {
		return Reward{}, apperr.InvalidInput("reward %q: %s is not a currency category", def.ID, def.Category)
	}
	if amount < 0 {
		return Reward{}, apperr.InvalidInput("reward %q: negative amount %d", def.ID, amount)
	}
	return Reward{Category: def.Category, Name: def.Name, Icon: def.Icon, Amount: amount}, nil
}

// NewPetReward builds a huge or titanic reward.
func NewPetReward(def RewardDefinition) (Reward, error) {
	if !def.Category.IsPet() {
		return Reward{}, apperr.InvalidInput("reward %q: %s is not a pet category", def.ID, def.Category)
	}
	return Reward{Category: def.Category, Name: def.Name, Icon: def.Icon, Amount: def.Amount}, nil
}

// Unit is the display unit of the reward amount in feeds.
func (r Reward) Unit() string {
	switch r.Category {
	case CategoryTokens:
		return "🍥"
	case CategoryGems:
		return "💎"
	}
	return ""
}
