package service

import (
	"context"
	"fmt"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/cache"
	"chest-rewards-api/internal/chest"
	"chest-rewards-api/internal/events"
	"chest-rewards-api/internal/features"
	"chest-rewards-api/internal/models"
	"chest-rewards-api/internal/tracing"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Store is the transactional access to the economy document.
type Store interface {
	View(ctx context.Context, fn func(econ *models.Economy) error) error
	Update(ctx context.Context, fn func(econ *models.Economy) error) error
}

// Options carries the optional collaborators of a Service.
type Options struct {
	// Defaults is the catalog restored by ResetRewards.
	Defaults         chest.Catalog
	Engine           *chest.Engine
	Events           *events.Manager
	Features         *features.Manager
	FeedCache        *cache.FeedCache
	Tracer           *tracing.Tracer
	Log              logrus.FieldLogger
	SessionCacheSize int
}

// Service provides the chest economy operations.
type Service struct {
	store    Store
	engine   *chest.Engine
	events   *events.Manager
	flags    *features.Manager
	feed     *cache.FeedCache
	tracer   *tracing.Tracer
	log      logrus.FieldLogger
	defaults chest.Catalog
	sessions *lru.Cache
	printer  *message.Printer
}

// NewService creates a new service instance. Missing options get working
// defaults: crypto RNG, all features on, no feed cache, no-op tracing.
func NewService(store Store, opts Options) (*Service, error) {
	if opts.Engine == nil {
		opts.Engine = chest.NewEngine(nil)
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		opts.Log = l
	}
	if opts.Events == nil {
		opts.Events = events.NewManager(false, opts.Log)
	}
	if opts.Features == nil {
		opts.Features = DefaultFeatures(true, true, true, true)
	}
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}
	if len(opts.Defaults.Rewards) == 0 {
		opts.Defaults = chest.StockCatalog()
	}
	if opts.SessionCacheSize <= 0 {
		opts.SessionCacheSize = 1024
	}

	flags := opts.Features
	opts.Events.SetGate(func() bool { return flags.IsEnabled(features.EventHooks) })

	sessions, err := lru.New(opts.SessionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	return &Service{
		store:    store,
		engine:   opts.Engine,
		events:   opts.Events,
		flags:    opts.Features,
		feed:     opts.FeedCache,
		tracer:   opts.Tracer,
		log:      opts.Log,
		defaults: opts.Defaults,
		sessions: sessions,
		printer:  message.NewPrinter(language.English),
	}, nil
}

// DefaultFeatures registers the service feature flags.
func DefaultFeatures(multiOpen, petConversion, feedCache, eventHooks bool) *features.Manager {
	m := features.NewManager()
	m.Register(features.MultiOpen, multiOpen, "Bulk chest opening")
	m.Register(features.PetConversion, petConversion, "Converting pets to gems")
	m.Register(features.FeedCache, feedCache, "Serve the global feed from cache")
	m.Register(features.EventHooks, eventHooks, "Metrics and audit log subscribers")
	return m
}

// Features exposes the flag manager for the admin endpoints.
func (s *Service) Features() *features.Manager {
	return s.flags
}

// Authenticate resolves an API token. Resolved identities are cached; admin
// levels only change at startup seeding.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	if v, ok := s.sessions.Get(token); ok {
		return v.(models.Identity), nil
	}

	var id models.Identity
	err := s.store.View(ctx, func(econ *models.Economy) error {
		username, ok := econ.Sessions[token]
		if !ok {
			return apperr.New(apperr.KindUnauthorized, "Invalid token")
		}
		user, ok := econ.User(username)
		if !ok {
			return apperr.New(apperr.KindUnauthorized, "Invalid token")
		}
		id = models.Identity{Username: user.Username, AdminLevel: user.AdminLevel}
		return nil
	})
	if err != nil {
		return models.Identity{}, err
	}

	s.sessions.Add(token, id)
	return id, nil
}

// State returns the chest configuration and the caller's wallet. Reading
// the boost may reset an expired one, so this runs as an update.
func (s *Service) State(ctx context.Context, id models.Identity) (state models.ChestState, err error) {
	ctx, span := s.tracer.StartSpan(ctx, "service.State", attribute.String("user", id.Username))
	defer func() { tracing.End(span, err) }()

	err = s.store.Update(ctx, func(econ *models.Economy) error {
		user, ok := econ.User(id.Username)
		if !ok {
			return apperr.NotFound("user not found")
		}
		c := econ.Chest
		rewards := make([]models.RewardView, 0, len(c.Rewards))
		for _, r := range c.Rewards {
			rewards = append(rewards, models.RewardView{
				Icon:      r.Icon,
				Name:      r.Name,
				Category:  r.Category,
				Amount:    r.Amount,
				ChancePct: r.ChancePct,
				Desc:      s.describe(r.Category, c.JackpotMaxGems),
			})
		}

		boost := models.BoostView{}
		if b := chest.ActiveBoost(econ, s.engine.Now()); b != nil {
			boost = models.BoostView{
				Active:             true,
				ExpiresAt:          b.ExpiresAt,
				GlobalMultiplier:   b.GlobalMultiplier,
				HugeChanceBonus:    b.HugeChanceBonus,
				TitanicChanceBonus: b.TitanicChanceBonus,
				TokenBonus:         b.TokenBonus,
			}
		}

		state = models.ChestState{
			Chest: models.ChestView{
				CostTokens:     c.CostTokens,
				JackpotMaxGems: c.JackpotMaxGems,
				Rewards:        rewards,
				PetValues:      c.PetValues,
				Boosts:         boost,
			},
			Balance: user.Balance,
			Tokens:  user.Tokens,
		}
		return nil
	})
	return state, err
}

func (s *Service) describe(c models.Category, jackpot int64) string {
	switch c {
	case models.CategoryGems:
		return s.printer.Sprintf("Up to %d gems", jackpot)
	case models.CategoryTokens:
		return "Cosmic token reward"
	case models.CategoryHuge:
		return "Ultra rare!"
	case models.CategoryTitanic:
		return "MYTHIC ultra rare!"
	}
	return "Reward"
}

// invalidateFeed drops the cached global feed after an open.
func (s *Service) invalidateFeed(ctx context.Context) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("failed to invalidate feed cache")
	}
}
