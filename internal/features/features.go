package features

import (
	"sort"
	"sync"

	"chest-rewards-api/internal/apperr"
)

// Feature flag names.
const (
	// MultiOpen gates POST /chest/open-multi.
	MultiOpen = "multi_open"
	// PetConversion gates the convert and convert-many endpoints.
	PetConversion = "pet_conversion"
	// FeedCache serves the global feed from the cache layer.
	FeedCache = "feed_cache"
	// EventHooks enables the event subscribers.
	EventHooks = "event_hooks"
)

// FeatureFlag represents a feature flag configuration.
type FeatureFlag struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Manager manages feature flags.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]*FeatureFlag
}

// NewManager creates a new feature flag manager.
func NewManager() *Manager {
	return &Manager{flags: make(map[string]*FeatureFlag)}
}

// Register registers a new feature flag.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[name] = &FeatureFlag{
		Name:        name,
		Enabled:     enabled,
		Description: description,
	}
}

// IsEnabled checks if a feature flag is enabled. Unknown flags are disabled.
func (m *Manager) IsEnabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[name]
	return exists && flag.Enabled
}

// Require returns an Unavailable error when the flag is off.
func (m *Manager) Require(name string) error {
	if !m.IsEnabled(name) {
		return apperr.New(apperr.KindUnavailable, "%s is currently disabled", name)
	}
	return nil
}

// Set enables or disables a registered flag.
func (m *Manager) Set(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if flag, exists := m.flags[name]; exists {
		flag.Enabled = enabled
	}
}

// List returns a copy of all flags sorted by name.
func (m *Manager) List() []FeatureFlag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FeatureFlag, 0, len(m.flags))
	for _, f := range m.flags {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
