package chest

import (
	"fmt"
	"time"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/inventory"
	"chest-rewards-api/internal/models"
)

const (
	// MaxMultiOpenTotal is the hard ceiling of a single multi-open request.
	MaxMultiOpenTotal = 50_000
	// MultiBatchSize is the number of opens attempted per affordability check.
	MultiBatchSize = 100
)

// Multi-open stop reasons.
const (
	StopInsufficientTokens = "insufficient_tokens"
	StopBatchZeroGuard     = "batch_zero_guard"
	StopInternalError      = "internal_error"
	StopUnknown            = "unknown"
)

// Engine runs paid chest opens against an economy document. Callers must
// hold the store lock for the whole call.
type Engine struct {
	selector *Selector
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine drawing from rng (nil means DefaultRNG).
func NewEngine(rng RandomSource, opts ...Option) *Engine {
	e := &Engine{selector: NewSelector(rng), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Open performs one paid open. The cost is debited before the draw.
func (e *Engine) Open(econ *models.Economy, username string) (models.OpenResult, error) {
	user, ok := econ.User(username)
	if !ok {
		return models.OpenResult{}, apperr.NotFound("User missing")
	}
	cost := econ.Chest.CostTokens
	if cost <= 0 {
		return models.OpenResult{}, apperr.New(apperr.KindMisconfigured, "Chest cost misconfigured.")
	}
	if user.Tokens < cost {
		return models.OpenResult{}, apperr.New(apperr.KindInsufficientFunds, "Not enough 🍥 tokens. Need %d.", cost)
	}
	return e.openIsolated(econ, user, cost)
}

// openIsolated runs one open and turns a panic into an Internal error. The
// user's wallet and inventory are restored to their state before this open;
// earlier opens are untouched.
func (e *Engine) openIsolated(econ *models.Economy, user *models.User, cost int64) (res models.OpenResult, err error) {
	tokens, balance, inv := user.Tokens, user.Balance, user.Inventory
	defer func() {
		if r := recover(); r != nil {
			user.Tokens, user.Balance, user.Inventory = tokens, balance, inv
			err = apperr.Wrap(apperr.KindInternal, fmt.Errorf("chest open panic: %v", r), "")
		}
	}()
	return e.open(econ, user, cost)
}

func (e *Engine) open(econ *models.Economy, user *models.User, cost int64) (models.OpenResult, error) {
	now := e.now()
	user.Tokens -= cost
	econ.TouchUser(user.Username)

	boost := ActiveBoost(econ, now)
	def, err := e.selector.Pick(econ.Chest.Rewards, boost)
	if err != nil {
		user.Tokens += cost
		return models.OpenResult{}, err
	}
	reward, err := Normalize(def, boost, econ.Chest.JackpotMaxGems)
	if err != nil {
		user.Tokens += cost
		return models.OpenResult{}, err
	}

	var ref *models.ItemRef
	switch reward.Category {
	case models.CategoryGems:
		user.Balance += reward.Amount
	case models.CategoryTokens:
		user.Tokens += reward.Amount
	case models.CategoryHuge, models.CategoryTitanic:
		item, err := inventory.AddItem(user, reward.Category, reward.Name, now)
		if err != nil {
			user.Tokens += cost
			return models.OpenResult{}, err
		}
		ref = &models.ItemRef{ID: item.ID, Category: item.Category, Name: item.Name}
	}

	itemID := ""
	if ref != nil {
		itemID = ref.ID
	}
	econ.AppendTransaction(models.NewChestOpenTx(user.Username, cost, reward, itemID, now.UnixMilli()))
	econ.PushFeed(user.Username, models.FeedEntry{Time: now.UnixMilli(), Reward: reward})

	return models.OpenResult{
		Reward:     reward,
		InvItem:    ref,
		NewBalance: user.Balance,
		NewTokens:  user.Tokens,
	}, nil
}

// OpenMulti performs up to requested opens in affordability-checked batches.
// Once an open has succeeded the call never fails; early termination is
// reported in StoppedReason.
func (e *Engine) OpenMulti(econ *models.Economy, username string, requested int64) (models.MultiOpenResult, error) {
	if requested <= 0 {
		return models.MultiOpenResult{}, apperr.InvalidInput("count must be > 0")
	}
	requested = min(requested, MaxMultiOpenTotal)

	user, ok := econ.User(username)
	if !ok {
		return models.MultiOpenResult{}, apperr.NotFound("User missing")
	}
	cost := econ.Chest.CostTokens
	if cost <= 0 {
		return models.MultiOpenResult{}, apperr.New(apperr.KindMisconfigured, "Chest cost misconfigured.")
	}

	results := make([]models.OpenOutcome, 0, min(requested, user.Tokens/cost))
	remaining := requested
	stopped := ""

loop:
	for remaining > 0 {
		affordable := user.Tokens / cost
		if affordable <= 0 {
			stopped = StopInsufficientTokens
			break
		}

		batch := min(MultiBatchSize, remaining, affordable)
		if batch <= 0 {
			stopped = StopBatchZeroGuard
			break
		}
		for range batch {
			out, err := e.Open(econ, username)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindInternal {
					if len(results) == 0 {
						return models.MultiOpenResult{}, err
					}
					stopped = StopInternalError
				} else {
					stopped = err.Error()
				}
				break loop
			}
			results = append(results, models.OpenOutcome{Reward: out.Reward, InvItem: out.InvItem})
		}
		remaining -= batch
	}

	opened := int64(len(results))
	if stopped == "" && opened != requested {
		stopped = StopUnknown
	}
	return models.MultiOpenResult{
		CountRequested: requested,
		CountOpened:    opened,
		BatchSize:      MultiBatchSize,
		StoppedReason:  stopped,
		Results:        results,
		NewBalance:     user.Balance,
		NewTokens:      user.Tokens,
	}, nil
}
