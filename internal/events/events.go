package events

import (
	"context"
	"sync"
	"time"

	"chest-rewards-api/internal/models"

	"github.com/sirupsen/logrus"
)

// EventType represents the type of event.
type EventType string

const (
	// EventChestOpened is emitted for every single open.
	EventChestOpened EventType = "chest.opened"
	// EventChestMultiOpened is emitted once per multi-open request.
	EventChestMultiOpened EventType = "chest.multi_opened"
	// EventBoostInstalled is emitted when an admin installs a boost.
	EventBoostInstalled EventType = "boost.installed"
	// EventPetClaimed is emitted when a stored pet is claimed.
	EventPetClaimed EventType = "pet.claimed"
	// EventPetConverted is emitted for each conversion request that paid out.
	EventPetConverted EventType = "pet.converted"
)

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      any
}

type ChestOpenedData struct {
	Username string
	Reward   models.Reward
	ItemID   string
}

type ChestMultiOpenedData struct {
	Username string
	Result   models.MultiOpenResult
}

type BoostInstalledData struct {
	Admin string
	Boost models.BoostState
}

type PetClaimedData struct {
	Username string
	Item     models.InventoryItem
}

type PetConvertedData struct {
	Username string
	Result   models.ConvertResult
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager dispatches events to subscribers on background goroutines.
type Manager struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	enabled  bool
	gate     func() bool
	wg       sync.WaitGroup
	log      logrus.FieldLogger
}

// NewManager creates a new event manager. A disabled manager drops
// subscriptions and publications.
func NewManager(enabled bool, log logrus.FieldLogger) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
		log:      log,
	}
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// SetGate installs a runtime switch consulted on every publish. Events are
// dropped while it reports false.
func (m *Manager) SetGate(gate func() bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = gate
}

// Publish publishes an event to all subscribed handlers.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	handlers := m.handlers[eventType]
	if !m.enabled || len(handlers) == 0 {
		return
	}
	if m.gate != nil && !m.gate() {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	// Handlers outlive the request. wg.Add runs under the read lock so
	// Shutdown cannot start waiting before it.
	ctx = context.WithoutCancel(ctx)
	for _, handler := range handlers {
		m.wg.Add(1)
		go func(h Handler) {
			defer m.wg.Done()
			if err := h(ctx, event); err != nil {
				m.log.WithError(err).WithField("event", string(event.Type)).Warn("event handler failed")
			}
		}(handler)
	}
}

func (m *Manager) PublishChestOpened(ctx context.Context, username string, res models.OpenResult) {
	data := ChestOpenedData{Username: username, Reward: res.Reward}
	if res.InvItem != nil {
		data.ItemID = res.InvItem.ID
	}
	m.Publish(ctx, EventChestOpened, data)
}

func (m *Manager) PublishChestMultiOpened(ctx context.Context, username string, res models.MultiOpenResult) {
	m.Publish(ctx, EventChestMultiOpened, ChestMultiOpenedData{Username: username, Result: res})
}

func (m *Manager) PublishBoostInstalled(ctx context.Context, admin string, boost models.BoostState) {
	m.Publish(ctx, EventBoostInstalled, BoostInstalledData{Admin: admin, Boost: boost})
}

func (m *Manager) PublishPetClaimed(ctx context.Context, username string, item models.InventoryItem) {
	m.Publish(ctx, EventPetClaimed, PetClaimedData{Username: username, Item: item})
}

func (m *Manager) PublishPetConverted(ctx context.Context, username string, res models.ConvertResult) {
	m.Publish(ctx, EventPetConverted, PetConvertedData{Username: username, Result: res})
}

// Wait blocks until every dispatched handler has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown stops accepting events and waits for running handlers.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
	m.mu.Unlock()

	m.wg.Wait()
}
