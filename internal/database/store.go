package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"

	"github.com/sirupsen/logrus"
)

// Snapshotter persists and restores the economy document.
type Snapshotter interface {
	// Load returns the stored document, or nil when nothing was saved yet.
	Load(ctx context.Context) (*models.Economy, error)
	// Save writes the document; implementations may write only dirty keys.
	Save(ctx context.Context, econ *models.Economy) error
	Close() error
}

// Store owns the in-memory economy and serializes every access to it.
type Store struct {
	mu   sync.Mutex
	econ *models.Economy
	snap Snapshotter
	log  logrus.FieldLogger
}

// Open loads the document from snap, creating a fresh one from defaults when
// nothing is stored. Missing fields are filled from defaults.
func Open(ctx context.Context, snap Snapshotter, defaults models.ChestSettings, log logrus.FieldLogger) (*Store, error) {
	econ, err := snap.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load economy: %w", err)
	}

	s := &Store{snap: snap, log: log}
	if econ == nil {
		log.Info("no stored economy, starting fresh")
		s.econ = models.NewEconomy(defaults)
		if err := s.persist(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}

	econ.Normalize(defaults)
	econ.MarkPersisted()
	s.econ = econ
	log.WithField("users", len(econ.Users)).Info("economy loaded")
	return s, nil
}

// View runs fn with exclusive read access to the document. fn must not
// mutate it.
func (s *Store) View(ctx context.Context, fn func(econ *models.Economy) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.econ)
}

// Update runs fn under the store lock and persists whatever fn changed,
// including changes made before fn returned an error.
func (s *Store) Update(ctx context.Context, fn func(econ *models.Economy) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn(s.econ)
	if s.econ.Dirty() {
		if perr := s.persist(ctx); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context) error {
	// Saves run to completion even if the request is cancelled.
	ctx = context.WithoutCancel(ctx)
	if err := s.snap.Save(ctx, s.econ); err != nil {
		s.log.WithError(err).Error("failed to persist economy")
		return apperr.Wrap(apperr.KindInternal, err, "")
	}
	s.econ.MarkPersisted()
	return nil
}

// Seed ensures the configured users and their API tokens exist.
func (s *Store) Seed(ctx context.Context, users []models.SeedUser, now time.Time) error {
	return s.Update(ctx, func(econ *models.Economy) error {
		for _, seed := range users {
			if _, err := econ.EnsureUser(seed, now.UnixMilli()); err != nil {
				return err
			}
			s.log.WithFields(logrus.Fields{
				"username":    seed.Username,
				"admin_level": seed.AdminLevel,
			}).Debug("seed user ensured")
		}
		return nil
	})
}

// Close closes the underlying snapshotter.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Close()
}
