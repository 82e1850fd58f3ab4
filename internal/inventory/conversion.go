package inventory

import (
	"time"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"
)

// ConvertOne converts a single stored pet into gems.
func ConvertOne(econ *models.Economy, username, id string, now time.Time) (models.ConvertResult, error) {
	user, ok := econ.User(username)
	if !ok {
		return models.ConvertResult{}, apperr.NotFound("user not found")
	}
	item := Find(user, id)
	if item == nil {
		return models.ConvertResult{}, apperr.NotFound("Not found")
	}
	if item.Status != models.ItemStored {
		return models.ConvertResult{}, apperr.New(apperr.KindAlreadyHandled, "Already handled")
	}
	payout := econ.Chest.PetValues.RateFor(item.Category)
	if payout <= 0 {
		return models.ConvertResult{}, apperr.New(apperr.KindConversionUnavailable, "Conversion value not set")
	}

	convert(econ, user, item, payout, now)
	converted := *item
	return models.ConvertResult{
		Mode:       models.ConvertModeID,
		Category:   converted.Category,
		Converted:  1,
		PayoutEach: payout,
		Total:      payout,
		NewBalance: user.Balance,
		Item:       &converted,
	}, nil
}

// ConvertByType converts up to count stored pets of one category, newest
// first. Asking for more than are stored is not an error.
func ConvertByType(econ *models.Economy, username string, category models.Category, count int64, now time.Time) (models.ConvertResult, error) {
	if !category.IsPet() {
		return models.ConvertResult{}, apperr.InvalidInput("Missing type (huge/titanic) or id")
	}
	if count <= 0 {
		return models.ConvertResult{}, apperr.InvalidInput("Missing/invalid count")
	}
	user, ok := econ.User(username)
	if !ok {
		return models.ConvertResult{}, apperr.NotFound("user not found")
	}

	var stored []int
	for i := range user.Inventory {
		if user.Inventory[i].Category == category && user.Inventory[i].Status == models.ItemStored {
			stored = append(stored, i)
		}
	}
	if len(stored) == 0 {
		return models.ConvertResult{}, apperr.InvalidInput("No stored %s pets to convert", category)
	}
	payout := econ.Chest.PetValues.RateFor(category)
	if payout <= 0 {
		return models.ConvertResult{}, apperr.New(apperr.KindConversionUnavailable, "Conversion value not set")
	}

	n := min(count, int64(len(stored)))
	for _, idx := range stored[:n] {
		convert(econ, user, &user.Inventory[idx], payout, now)
	}
	return models.ConvertResult{
		Mode:       models.ConvertModeTypeCount,
		Category:   category,
		Converted:  n,
		PayoutEach: payout,
		Total:      n * payout,
		NewBalance: user.Balance,
	}, nil
}

// ConvertMany converts the listed pets, skipping ids that are unknown,
// already handled or have no rate. It fails only when nothing converted.
func ConvertMany(econ *models.Economy, username string, ids []string, now time.Time) (models.ConvertResult, error) {
	if len(ids) == 0 {
		return models.ConvertResult{}, apperr.InvalidInput("Missing ids")
	}
	user, ok := econ.User(username)
	if !ok {
		return models.ConvertResult{}, apperr.NotFound("user not found")
	}

	var converted, total int64
	for _, id := range ids {
		item := Find(user, id)
		if item == nil || item.Status != models.ItemStored {
			continue
		}
		payout := econ.Chest.PetValues.RateFor(item.Category)
		if payout <= 0 {
			continue
		}
		convert(econ, user, item, payout, now)
		converted++
		total += payout
	}
	if converted == 0 {
		return models.ConvertResult{}, apperr.InvalidInput("No valid pets to convert")
	}
	return models.ConvertResult{
		Mode:       models.ConvertModeIDs,
		Converted:  converted,
		Total:      total,
		NewBalance: user.Balance,
	}, nil
}

func convert(econ *models.Economy, user *models.User, item *models.InventoryItem, payout int64, now time.Time) {
	user.Balance += payout
	item.Status = models.ItemConverted
	item.HandledAt = now.UnixMilli()
	item.ConvertedTo = "gems"
	item.ConvertedAmount = payout
	econ.TouchUser(user.Username)
	econ.AppendTransaction(models.NewPetConvertTx(user.Username, *item, payout, now.UnixMilli()))
}
