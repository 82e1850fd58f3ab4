package chest

import (
	"errors"
	"fmt"
	"math"
	"os"

	"chest-rewards-api/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultCostTokens is the price of one chest.
	DefaultCostTokens = 500
	// DefaultJackpotMaxGems caps every gem payout.
	DefaultJackpotMaxGems = 25_000_000
	// DefaultHugeToGems and DefaultTitanicToGems are the pet exchange rates.
	DefaultHugeToGems    = 8_000_000
	DefaultTitanicToGems = 250_000_000
)

// DefaultCatalog returns the stock reward table.
func DefaultCatalog() []models.RewardDefinition {
	return []models.RewardDefinition{
		{ID: "TOK_500", Icon: "🍥", Name: "500 Cosmic Tokens", Category: models.CategoryTokens, Amount: 500, ChancePct: 28.0},
		{ID: "TOK_1000", Icon: "🍥", Name: "1000 Cosmic Tokens", Category: models.CategoryTokens, Amount: 1000, ChancePct: 16.0},
		{ID: "TOK_1500", Icon: "🍥", Name: "1500 Cosmic Tokens", Category: models.CategoryTokens, Amount: 1500, ChancePct: 8.0},

		{ID: "G_500K", Icon: "💎", Name: "500,000 Gems", Category: models.CategoryGems, Amount: 500_000, ChancePct: 20.0},
		{ID: "G_1M", Icon: "💎", Name: "1,000,000 Gems", Category: models.CategoryGems, Amount: 1_000_000, ChancePct: 14.0},
		{ID: "G_2M", Icon: "💎", Name: "2,000,000 Gems", Category: models.CategoryGems, Amount: 2_000_000, ChancePct: 8.0},
		{ID: "G_5M", Icon: "💎", Name: "5,000,000 Gems", Category: models.CategoryGems, Amount: 5_000_000, ChancePct: 3.0},
		{ID: "G_10M", Icon: "💎", Name: "10,000,000 Gems", Category: models.CategoryGems, Amount: 10_000_000, ChancePct: 1.0},
		{ID: "G_25M", Icon: "💎", Name: "JACKPOT 25,000,000 Gems", Category: models.CategoryGems, Amount: 25_000_000, ChancePct: 0.15},

		{ID: "HUGE", Icon: "🔥", Name: "Huge", Category: models.CategoryHuge, Amount: 1, ChancePct: 0.12},
		{ID: "TITANIC", Icon: "🛸👑", Name: "Titanic", Category: models.CategoryTitanic, Amount: 1, ChancePct: 0.005},
	}
}

// DefaultPetValues returns the stock pet exchange rates.
func DefaultPetValues() models.PetValueTable {
	return models.PetValueTable{HugeToGems: DefaultHugeToGems, TitanicToGems: DefaultTitanicToGems}
}

// Catalog is a reward table together with its jackpot ceiling.
type Catalog struct {
	Rewards        []models.RewardDefinition `yaml:"rewards"`
	JackpotMaxGems int64                     `yaml:"jackpotMaxGems"`
}

// DefaultSettings returns the chest settings of a fresh economy.
func DefaultSettings(catalog Catalog, costTokens int64, petValues models.PetValueTable) models.ChestSettings {
	return models.ChestSettings{
		CostTokens:     costTokens,
		JackpotMaxGems: catalog.JackpotMaxGems,
		Rewards:        append([]models.RewardDefinition(nil), catalog.Rewards...),
		PetValues:      petValues,
		Boosts:         models.InactiveBoost(),
	}
}

// StockCatalog returns the built-in catalog.
func StockCatalog() Catalog {
	return Catalog{Rewards: DefaultCatalog(), JackpotMaxGems: DefaultJackpotMaxGems}
}

// ValidateCatalog rejects reward tables the engine cannot draw from.
func ValidateCatalog(defs []models.RewardDefinition) error {
	if len(defs) == 0 {
		return errors.New("catalog: at least one reward is required")
	}
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("catalog: reward %d: id is required", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("catalog: duplicate reward id %q", d.ID)
		}
		seen[d.ID] = true
		if _, ok := models.ParseCategory(string(d.Category)); !ok {
			return fmt.Errorf("catalog: reward %q: unknown type %q", d.ID, d.Category)
		}
		if d.Amount < 0 {
			return fmt.Errorf("catalog: reward %q: amount must be non-negative", d.ID)
		}
		if math.IsNaN(d.ChancePct) || math.IsInf(d.ChancePct, 0) || d.ChancePct < 0 {
			return fmt.Errorf("catalog: reward %q: chancePct must be a non-negative number", d.ID)
		}
	}
	return nil
}

// LoadCatalogFile reads a YAML reward table. A missing jackpot ceiling falls
// back to DefaultJackpotMaxGems.
func LoadCatalogFile(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var cat Catalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range cat.Rewards {
		c, _ := models.ParseCategory(string(cat.Rewards[i].Category))
		cat.Rewards[i].Category = c
	}
	if err := ValidateCatalog(cat.Rewards); err != nil {
		return Catalog{}, err
	}
	if cat.JackpotMaxGems <= 0 {
		cat.JackpotMaxGems = DefaultJackpotMaxGems
	}
	return cat, nil
}
