package models

// TransactionKind tags a transaction record.
type TransactionKind string

const (
	TxChestOpen  TransactionKind = "chest_open"
	TxPetClaim   TransactionKind = "pet_claim"
	TxPetConvert TransactionKind = "pet_convert"
)

// TransactionRecord is an immutable audit entry. Exactly one of the meta
// pointers is set, matching Kind.
type TransactionRecord struct {
	Seq       int64           `json:"seq"`
	Kind      TransactionKind `json:"kind"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    int64           `json:"amount"`
	Time      int64           `json:"time"`
	ChestOpen *ChestOpenMeta  `json:"chestOpen,omitempty"`
	Pet       *PetMeta        `json:"pet,omitempty"`
}

// ChestOpenMeta is the payload of a chest_open record.
type ChestOpenMeta struct {
	Reward    Reward `json:"reward"`
	InvItemID string `json:"invItemId"`
}

// PetMeta is the payload of pet_claim and pet_convert records.
type PetMeta struct {
	PetType Category `json:"petType"`
	PetName string   `json:"petName"`
	PetID   string   `json:"petId"`
}

// NewChestOpenTx records a paid open.
func NewChestOpenTx(username string, cost int64, reward Reward, invItemID string, now int64) TransactionRecord {
	return TransactionRecord{
		Kind:      TxChestOpen,
		From:      username,
		To:        "chest",
		Amount:    cost,
		Time:      now,
		ChestOpen: &ChestOpenMeta{Reward: reward, InvItemID: invItemID},
	}
}

// NewPetClaimTx records a stored -> claimed transition.
func NewPetClaimTx(username string, item InventoryItem, now int64) TransactionRecord {
	return TransactionRecord{
		Kind:   TxPetClaim,
		From:   username,
		To:     "inventory",
		Amount: 1,
		Time:   now,
		Pet:    petMeta(item),
	}
}

// NewPetConvertTx records a stored -> converted transition paying out gems.
func NewPetConvertTx(username string, item InventoryItem, payout int64, now int64) TransactionRecord {
	return TransactionRecord{
		Kind:   TxPetConvert,
		From:   username,
		To:     "gems",
		Amount: payout,
		Time:   now,
		Pet:    petMeta(item),
	}
}

func petMeta(item InventoryItem) *PetMeta {
	return &PetMeta{PetType: item.Category, PetName: item.Name, PetID: item.ID}
}
