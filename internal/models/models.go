package models

import "strings"

// Category identifies what a reward pays out.
type Category string

const (
	CategoryTokens  Category = "tokens"
	CategoryGems    Category = "gems"
	CategoryHuge    Category = "huge"
	CategoryTitanic Category = "titanic"
)

// ParseCategory normalizes s and reports whether it names a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryTokens, CategoryGems, CategoryHuge, CategoryTitanic:
		return c, true
	}
	return c, false
}

// IsPet reports whether the category pays out an inventory item.
func (c Category) IsPet() bool {
	return c == CategoryHuge || c == CategoryTitanic
}

// IsCurrency reports whether the category pays out gems or tokens.
func (c Category) IsCurrency() bool {
	return c == CategoryGems || c == CategoryTokens
}

// RewardDefinition is one catalog entry.
type RewardDefinition struct {
	ID        string   `json:"id" yaml:"id"`
	Icon      string   `json:"icon" yaml:"icon"`
	Name      string   `json:"name" yaml:"name"`
	Category  Category `json:"type" yaml:"type"`
	Amount    int64    `json:"amount" yaml:"amount"`
	ChancePct float64  `json:"chancePct" yaml:"chancePct"` // percentage-scaled weight
}

// BoostState is the single global time-boxed odds/payout modifier.
type BoostState struct {
	Active             bool    `json:"active"`
	ExpiresAt          int64   `json:"expiresAt"` // unix millis, 0 when inactive
	GlobalMultiplier   float64 `json:"globalMultiplier"`
	HugeChanceBonus    float64 `json:"hugeChanceBonus"`
	TitanicChanceBonus float64 `json:"titanicChanceBonus"`
	TokenBonus         int64   `json:"tokenBonus"`
}

// InactiveBoost returns the neutral boost.
func InactiveBoost() BoostState {
	return BoostState{GlobalMultiplier: 1}
}

// PetValueTable holds the gem exchange rates for pets.
type PetValueTable struct {
	HugeToGems    int64 `json:"hugeToGems"`
	TitanicToGems int64 `json:"titanicToGems"`
}

// RateFor returns the gem payout for one pet of category c, 0 if none.
func (p PetValueTable) RateFor(c Category) int64 {
	var rate int64
	switch c {
	case CategoryHuge:
		rate = p.HugeToGems
	case CategoryTitanic:
		rate = p.TitanicToGems
	}
	if rate < 0 {
		return 0
	}
	return rate
}

// ChestSettings is the global economic configuration shared by all opens.
type ChestSettings struct {
	CostTokens     int64              `json:"costTokens"`
	JackpotMaxGems int64              `json:"jackpotMaxGems"`
	Rewards        []RewardDefinition `json:"rewards"`
	PetValues      PetValueTable      `json:"petValues"`
	Boosts         BoostState         `json:"boosts"`
}

// ItemStatus is the lifecycle state of an inventory item. Transitions are
// one-way: stored -> claimed or stored -> converted.
type ItemStatus string

const (
	ItemStored    ItemStatus = "stored"
	ItemClaimed   ItemStatus = "claimed"
	ItemConverted ItemStatus = "converted"
)

// InventoryItem is a pet owned by exactly one user.
type InventoryItem struct {
	ID              string     `json:"id"`
	Category        Category   `json:"type"`
	Name            string     `json:"name"`
	Status          ItemStatus `json:"status"`
	CreatedAt       int64      `json:"createdAt"`
	HandledAt       int64      `json:"handledAt,omitempty"`
	ConvertedTo     string     `json:"convertedTo,omitempty"`
	ConvertedAmount int64      `json:"convertedAmount,omitempty"`
}

// ItemRef is the short form of an item returned with chest results.
type ItemRef struct {
	ID       string   `json:"id"`
	Category Category `json:"type"`
	Name     string   `json:"name"`
}

// AdminLevel is the role tier of a user.
type AdminLevel string

const (
	AdminNone  AdminLevel = "none"
	AdminTeam  AdminLevel = "team"
	AdminSuper AdminLevel = "super"
)

// IsAdmin reports whether the level grants access to admin routes.
func (l AdminLevel) IsAdmin() bool {
	return l == AdminTeam || l == AdminSuper
}

// User holds the economy fields of one account.
type User struct {
	Username   string          `json:"username"`
	Balance    int64           `json:"balance"` // gems
	Tokens     int64           `json:"tokens"`
	AdminLevel AdminLevel      `json:"adminLevel"`
	CreatedAt  int64           `json:"createdAt"`
	Inventory  []InventoryItem `json:"inventory"`
}

// Identity is the authenticated caller resolved by the auth middleware.
type Identity struct {
	Username   string
	AdminLevel AdminLevel
}

// FeedEntry is one recent chest outcome of a user.
type FeedEntry struct {
	Time   int64  `json:"time"`
	Reward Reward `json:"reward"`
}

// FeedItem is a rendered row of the global chest feed.
type FeedItem struct {
	User   string `json:"user"`
	Time   int64  `json:"time"`
	Top    string `json:"top"`
	Sub    string `json:"sub"`
	Amount *int64 `json:"amt"`
	Unit   string `json:"unit"`
}

// OpenResult is the outcome of one paid chest open.
type OpenResult struct {
	Reward     Reward   `json:"reward"`
	InvItem    *ItemRef `json:"invItem"`
	NewBalance int64    `json:"newBalance"`
	NewTokens  int64    `json:"newTokens"`
}

// OpenOutcome is one entry of a multi-open result list.
type OpenOutcome struct {
	Reward  Reward   `json:"reward"`
	InvItem *ItemRef `json:"invItem"`
}

// MultiOpenResult reports a bulk open; Results lists every open performed, in order.
type MultiOpenResult struct {
	CountRequested int64         `json:"countRequested"`
	CountOpened    int64         `json:"countOpened"`
	BatchSize      int64         `json:"batchSize"`
	StoppedReason  string        `json:"stoppedReason"`
	Results        []OpenOutcome `json:"results"`
	NewBalance     int64         `json:"newBalance"`
	NewTokens      int64         `json:"newTokens"`
}

// ConvertResult reports a pet conversion.
type ConvertResult struct {
	Mode       string         `json:"mode"`
	Category   Category       `json:"type,omitempty"`
	Converted  int64          `json:"converted"`
	PayoutEach int64          `json:"payoutEach,omitempty"`
	Total      int64          `json:"total"`
	NewBalance int64          `json:"newBalance"`
	Item       *InventoryItem `json:"item,omitempty"`
}

// Conversion modes.
const (
	ConvertModeID        = "id"
	ConvertModeTypeCount = "type_count"
	ConvertModeIDs       = "ids"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
