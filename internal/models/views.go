package models

// RewardView is a catalog entry as shown to players.
type RewardView struct {
	Icon      string   `json:"icon"`
	Name      string   `json:"name"`
	Category  Category `json:"type"`
	Amount    int64    `json:"amount"`
	ChancePct float64  `json:"chancePct"`
	Desc      string   `json:"desc"`
}

// BoostView omits the modifiers of an inactive boost.
type BoostView struct {
	Active             bool    `json:"active"`
	ExpiresAt          int64   `json:"expiresAt,omitempty"`
	GlobalMultiplier   float64 `json:"globalMultiplier,omitempty"`
	HugeChanceBonus    float64 `json:"hugeChanceBonus,omitempty"`
	TitanicChanceBonus float64 `json:"titanicChanceBonus,omitempty"`
	TokenBonus         int64   `json:"tokenBonus,omitempty"`
}

// ChestView is the public chest configuration.
type ChestView struct {
	CostTokens     int64         `json:"costTokens"`
	JackpotMaxGems int64         `json:"jackpotMaxGems"`
	Rewards        []RewardView  `json:"rewards"`
	PetValues      PetValueTable `json:"petValues"`
	Boosts         BoostView     `json:"boosts"`
}

// ChestState is the GET /chest/state payload.
type ChestState struct {
	Chest   ChestView `json:"chest"`
	Balance int64     `json:"balance"`
	Tokens  int64     `json:"tokens"`
}

// BoostInput carries the raw admin boost parameters.
type BoostInput struct {
	GlobalMultiplier   float64
	HugeChanceBonus    float64
	TitanicChanceBonus float64
	TokenBonus         float64
	DurationMinutes    float64
}

// ResetResult reports the catalog restored by reset-rewards.
type ResetResult struct {
	Rewards        []RewardDefinition `json:"rewards"`
	JackpotMaxGems int64              `json:"jackpotMaxGems"`
}
