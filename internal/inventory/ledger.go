package inventory

import (
	"strings"
	"time"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"

	"github.com/google/uuid"
)

// ItemIDPrefix marks pet identifiers.
const ItemIDPrefix = "PET_"

// NewItemID returns a fresh unique pet id.
var NewItemID = func() string {
	return ItemIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}

// AddItem stores a new pet at the front of the user's inventory and evicts
// the oldest items beyond models.InventoryCap.
func AddItem(user *models.User, category models.Category, name string, now time.Time) (models.InventoryItem, error) {
	if !category.IsPet() {
		return models.InventoryItem{}, apperr.InvalidInput("%s is not a pet type", category)
	}
	item := models.InventoryItem{
		ID:        NewItemID(),
		Category:  category,
		Name:      name,
		Status:    models.ItemStored,
		CreatedAt: now.UnixMilli(),
	}
	inv := append([]models.InventoryItem{item}, user.Inventory...)
	if len(inv) > models.InventoryCap {
		inv = inv[:models.InventoryCap]
	}
	user.Inventory = inv
	return item, nil
}

// Find returns a pointer into the user's inventory, or nil.
func Find(user *models.User, id string) *models.InventoryItem {
	for i := range user.Inventory {
		if user.Inventory[i].ID == id {
			return &user.Inventory[i]
		}
	}
	return nil
}

// Items returns a copy of the user's inventory, newest first.
func Items(user *models.User) []models.InventoryItem {
	return append([]models.InventoryItem{}, user.Inventory...)
}

// Claim acknowledges a stored pet. It has no currency effect.
func Claim(econ *models.Economy, username, id string, now time.Time) (models.InventoryItem, error) {
	user, ok := econ.User(username)
	if !ok {
		return models.InventoryItem{}, apperr.NotFound("user not found")
	}
	item := Find(user, id)
	if item == nil {
		return models.InventoryItem{}, apperr.NotFound("Not found")
	}
	if item.Status != models.ItemStored {
		return models.InventoryItem{}, apperr.New(apperr.KindAlreadyHandled, "Already handled")
	}

	item.Status = models.ItemClaimed
	item.HandledAt = now.UnixMilli()
	econ.TouchUser(username)
	econ.AppendTransaction(models.NewPetClaimTx(username, *item, now.UnixMilli()))
	return *item, nil
}
