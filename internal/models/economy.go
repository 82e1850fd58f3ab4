package models

import (
	"fmt"
	"math"
	"sort"
)

const (
	// InventoryCap is the number of most recent items a user keeps.
	InventoryCap = 200
	// FeedCapPerUser is the size of each user's recent-activity ring buffer.
	FeedCapPerUser = 30
	// GlobalFeedLimit is the number of rows returned by the global feed.
	GlobalFeedLimit = 40
)

// Economy is the whole persisted state: users, chest settings, the
// transaction log and the per-user feeds. It is not safe for concurrent use;
// the store serializes access.
type Economy struct {
	Users        map[string]*User       `json:"users"`
	Sessions     map[string]string      `json:"sessions"` // API token -> username
	Chest        ChestSettings          `json:"chest"`
	Transactions []TransactionRecord    `json:"tx"` // oldest first
	ChestFeed    map[string][]FeedEntry `json:"chestFeed"` // newest first
	NextSeq      int64                  `json:"nextSeq"`

	dirtyUsers    map[string]struct{}
	dirtySettings bool
	persistedSeq  int64
}

// NewEconomy returns an empty document with the given chest settings.
func NewEconomy(chest ChestSettings) *Economy {
	e := &Economy{Chest: chest}
	e.Normalize(chest)
	e.dirtySettings = true
	return e
}

// Normalize fills missing or invalid fields from defaults. It is applied
// after every load so older documents keep working.
func (e *Economy) Normalize(defaults ChestSettings) {
	if e.Users == nil {
		e.Users = make(map[string]*User)
	}
	if e.Sessions == nil {
		e.Sessions = make(map[string]string)
	}
	if e.ChestFeed == nil {
		e.ChestFeed = make(map[string][]FeedEntry)
	}
	if e.dirtyUsers == nil {
		e.dirtyUsers = make(map[string]struct{})
	}

	c := &e.Chest
	if c.CostTokens == 0 {
		c.CostTokens = defaults.CostTokens
	}
	if c.JackpotMaxGems <= 0 {
		c.JackpotMaxGems = defaults.JackpotMaxGems
	}
	if len(c.Rewards) == 0 {
		c.Rewards = append([]RewardDefinition(nil), defaults.Rewards...)
	}
	if c.PetValues == (PetValueTable{}) {
		c.PetValues = defaults.PetValues
	}
	if !c.Boosts.Active && c.Boosts.GlobalMultiplier == 0 {
		c.Boosts = InactiveBoost()
	}
	if math.IsNaN(c.Boosts.TitanicChanceBonus) {
		c.Boosts.TitanicChanceBonus = 0
	}

	for name, u := range e.Users {
		if u == nil {
			delete(e.Users, name)
			continue
		}
		u.Username = name
		if u.Balance < 0 {
			u.Balance = 0
		}
		if u.Tokens < 0 {
			u.Tokens = 0
		}
		if u.AdminLevel == "" {
			u.AdminLevel = AdminNone
		}
		if u.Inventory == nil {
			u.Inventory = []InventoryItem{}
		}
	}

	var maxSeq int64
	for _, tx := range e.Transactions {
		if tx.Seq > maxSeq {
			maxSeq = tx.Seq
		}
	}
	if e.NextSeq <= maxSeq {
		e.NextSeq = maxSeq + 1
	}
}

// User returns the named user.
func (e *Economy) User(username string) (*User, bool) {
	u, ok := e.Users[username]
	return u, ok
}

// SeedUser describes a user ensured at startup.
type SeedUser struct {
	Username   string     `json:"username" toml:"username" yaml:"username"`
	Token      string     `json:"token" toml:"token" yaml:"token"`
	AdminLevel AdminLevel `json:"admin_level" toml:"admin_level" yaml:"admin_level"`
	Tokens     int64      `json:"tokens" toml:"tokens" yaml:"tokens"`
	Balance    int64      `json:"balance" toml:"balance" yaml:"balance"`
}

// EnsureUser creates the seed user if missing, otherwise only fills its
// admin level and session token. Existing balances are never overwritten.
func (e *Economy) EnsureUser(seed SeedUser, now int64) (*User, error) {
	if seed.Username == "" {
		return nil, fmt.Errorf("seed user: username is required")
	}
	u, ok := e.Users[seed.Username]
	if !ok {
		u = &User{
			Username:   seed.Username,
			Balance:    max(seed.Balance, 0),
			Tokens:     max(seed.Tokens, 0),
			AdminLevel: seed.AdminLevel,
			CreatedAt:  now,
			Inventory:  []InventoryItem{},
		}
		e.Users[seed.Username] = u
	}
	if u.AdminLevel == "" || u.AdminLevel == AdminNone {
		u.AdminLevel = seed.AdminLevel
	}
	if u.AdminLevel == "" {
		u.AdminLevel = AdminNone
	}
	e.TouchUser(seed.Username)
	if seed.Token != "" && e.Sessions[seed.Token] != seed.Username {
		e.Sessions[seed.Token] = seed.Username
		e.TouchSettings()
	}
	return u, nil
}

// TouchUser marks a user as modified.
func (e *Economy) TouchUser(username string) {
	if e.dirtyUsers == nil {
		e.dirtyUsers = make(map[string]struct{})
	}
	e.dirtyUsers[username] = struct{}{}
}

// TouchSettings marks chest settings or sessions as modified.
func (e *Economy) TouchSettings() {
	e.dirtySettings = true
}

// Dirty reports whether anything changed since the last persist.
func (e *Economy) Dirty() bool {
	return e.dirtySettings || len(e.dirtyUsers) > 0 || e.NextSeq-1 > e.persistedSeq
}

// SettingsDirty reports whether chest settings or sessions changed.
func (e *Economy) SettingsDirty() bool {
	return e.dirtySettings
}

// DirtyUsers returns the modified usernames in sorted order.
func (e *Economy) DirtyUsers() []string {
	names := make([]string, 0, len(e.dirtyUsers))
	for name := range e.dirtyUsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PendingTransactions returns records appended since the last persist.
func (e *Economy) PendingTransactions() []TransactionRecord {
	i := sort.Search(len(e.Transactions), func(i int) bool {
		return e.Transactions[i].Seq > e.persistedSeq
	})
	return e.Transactions[i:]
}

// MarkPersisted clears dirty tracking after a successful save.
func (e *Economy) MarkPersisted() {
	e.dirtySettings = false
	e.dirtyUsers = make(map[string]struct{})
	e.persistedSeq = e.NextSeq - 1
}

// AppendTransaction assigns the next sequence number and appends rec.
func (e *Economy) AppendTransaction(rec TransactionRecord) TransactionRecord {
	if e.NextSeq <= 0 {
		e.NextSeq = 1
	}
	rec.Seq = e.NextSeq
	e.NextSeq++
	e.Transactions = append(e.Transactions, rec)
	return rec
}

// PushFeed prepends an entry to the user's feed, keeping FeedCapPerUser.
func (e *Economy) PushFeed(username string, entry FeedEntry) {
	feed := append([]FeedEntry{entry}, e.ChestFeed[username]...)
	if len(feed) > FeedCapPerUser {
		feed = feed[:FeedCapPerUser]
	}
	e.ChestFeed[username] = feed
	e.TouchUser(username)
}

// GlobalFeed merges every user's feed and returns the newest limit rows.
func (e *Economy) GlobalFeed(limit int) []FeedItem {
	type row struct {
		user  string
		entry FeedEntry
	}
	var rows []row
	for user, entries := range e.ChestFeed {
		for _, entry := range entries {
			rows = append(rows, row{user: user, entry: entry})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].entry.Time != rows[j].entry.Time {
			return rows[i].entry.Time > rows[j].entry.Time
		}
		return rows[i].user < rows[j].user
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	items := make([]FeedItem, 0, len(rows))
	for _, r := range rows {
		icon := r.entry.Reward.Icon
		if icon == "" {
			icon = "🎁"
		}
		name := r.entry.Reward.Name
		if name == "" {
			name = "Reward"
		}
		amount := r.entry.Reward.Amount
		items = append(items, FeedItem{
			User:   r.user,
			Time:   r.entry.Time,
			Top:    fmt.Sprintf("@%s opened a chest", r.user),
			Sub:    fmt.Sprintf("%s %s", icon, name),
			Amount: &amount,
			Unit:   r.entry.Reward.Unit(),
		})
	}
	return items
}
