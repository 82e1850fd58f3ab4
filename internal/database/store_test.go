package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"chest-rewards-api/internal/apperr"
	"chest-rewards-api/internal/models"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testDefaults() models.ChestSettings {
	return models.ChestSettings{
		CostTokens:     500,
		JackpotMaxGems: 25_000_000,
		Rewards: []models.RewardDefinition{
			{ID: "G", Name: "Gems", Category: models.CategoryGems, Amount: 1000, ChancePct: 1},
		},
		PetValues: models.PetValueTable{HugeToGems: 10, TitanicToGems: 20},
		Boosts:    models.InactiveBoost(),
	}
}

// countingSnapshotter keeps the document in memory.
type countingSnapshotter struct {
	stored *models.Economy
	saves  int
	err    error
}

func (c *countingSnapshotter) Load(ctx context.Context) (*models.Economy, error) {
	return c.stored, nil
}

func (c *countingSnapshotter) Save(ctx context.Context, econ *models.Economy) error {
	if c.err != nil {
		return c.err
	}
	c.saves++
	c.stored = econ
	return nil
}

func (c *countingSnapshotter) Close() error { return nil }

func openTestStore(t *testing.T, snap Snapshotter) *Store {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	store, err := Open(context.Background(), snap, testDefaults(), log)
	require.NoError(t, err)
	return store
}

func TestOpen_FreshDocumentIsPersisted(t *testing.T) {
	snap := &countingSnapshotter{}
	store := openTestStore(t, snap)

	assert.Equal(t, 1, snap.saves)
	err := store.View(context.Background(), func(econ *models.Economy) error {
		assert.Equal(t, int64(500), econ.Chest.CostTokens)
		assert.False(t, econ.Dirty())
		return nil
	})
	require.NoError(t, err)
}

func TestUpdate_PersistsEvenWhenFnFails(t *testing.T) {
	snap := &countingSnapshotter{}
	store := openTestStore(t, snap)
	require.NoError(t, store.Seed(context.Background(), []models.SeedUser{{Username: "alice", Tokens: 1000}}, testNow))
	saves := snap.saves

	err := store.Update(context.Background(), func(econ *models.Economy) error {
		u, _ := econ.User("alice")
		u.Tokens -= 500
		econ.TouchUser("alice")
		return apperr.InvalidInput("stop here")
	})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Equal(t, saves+1, snap.saves)
	assert.Equal(t, int64(500), snap.stored.Users["alice"].Tokens)
}

func TestUpdate_SkipsCleanDocument(t *testing.T) {
	snap := &countingSnapshotter{}
	store := openTestStore(t, snap)

	err := store.Update(context.Background(), func(econ *models.Economy) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, snap.saves)
}

func TestUpdate_SaveFailureIsInternal(t *testing.T) {
	snap := &countingSnapshotter{}
	log, hook := logtest.NewNullLogger()
	store, err := Open(context.Background(), snap, testDefaults(), log)
	require.NoError(t, err)

	snap.err = errors.New("disk full")
	err = store.Seed(context.Background(), []models.SeedUser{{Username: "alice"}}, testNow)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)

	// still dirty, so the next successful update writes it
	snap.err = nil
	require.NoError(t, store.Update(context.Background(), func(econ *models.Economy) error { return nil }))
	assert.Contains(t, snap.stored.Users, "alice")
}

func TestOpen_NormalizesStoredDocument(t *testing.T) {
	stored := &models.Economy{
		Users: map[string]*models.User{"bob": {Tokens: -5}},
	}
	snap := &countingSnapshotter{stored: stored}
	store := openTestStore(t, snap)

	err := store.View(context.Background(), func(econ *models.Economy) error {
		bob, ok := econ.User("bob")
		require.True(t, ok)
		assert.Equal(t, "bob", bob.Username)
		assert.Zero(t, bob.Tokens)
		assert.Equal(t, models.AdminNone, bob.AdminLevel)
		assert.Len(t, econ.Chest.Rewards, 1)
		assert.Equal(t, int64(1), econ.NextSeq)
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, snap.saves)
}

func TestFileSnapshotter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "economy.json")
	snap, err := NewFileSnapshotter(path)
	require.NoError(t, err)

	econ, err := snap.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, econ)

	store := openTestStore(t, snap)
	require.NoError(t, store.Seed(context.Background(), []models.SeedUser{
		{Username: "alice", Token: "tok-alice", Tokens: 1500, AdminLevel: models.AdminSuper},
	}, testNow))
	require.NoError(t, store.Update(context.Background(), func(econ *models.Economy) error {
		econ.AppendTransaction(models.TransactionRecord{Kind: models.TxPetClaim, From: "alice", Amount: 1})
		return nil
	}))
	require.NoError(t, store.Close())

	reopened := openTestStore(t, snap)
	err = reopened.View(context.Background(), func(econ *models.Economy) error {
		alice, ok := econ.User("alice")
		require.True(t, ok)
		assert.Equal(t, int64(1500), alice.Tokens)
		assert.Equal(t, models.AdminSuper, alice.AdminLevel)
		assert.Equal(t, "alice", econ.Sessions["tok-alice"])
		require.Len(t, econ.Transactions, 1)
		assert.Equal(t, int64(2), econ.NextSeq)
		return nil
	})
	require.NoError(t, err)
}
