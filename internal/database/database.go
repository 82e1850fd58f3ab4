package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"chest-rewards-api/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

const (
	settingsChest    = "chest"
	settingsSessions = "sessions"
	settingsNextSeq  = "next_seq"
)

// SQLiteSnapshotter persists the economy as rows: one per settings key, one
// per user (with its feed), and an append-only transaction table. Only keys
// touched since the previous save are written.
type SQLiteSnapshotter struct {
	conn *sql.DB
}

// NewSQLiteSnapshotter opens the database file and initializes the schema.
func NewSQLiteSnapshotter(dbPath string) (*SQLiteSnapshotter, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := newSQLiteSnapshotter(conn)
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func newSQLiteSnapshotter(conn *sql.DB) *SQLiteSnapshotter {
	return &SQLiteSnapshotter{conn: conn}
}

// Close closes the database connection.
func (s *SQLiteSnapshotter) Close() error {
	return s.conn.Close()
}

func (s *SQLiteSnapshotter) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			feed TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			seq INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			from_user TEXT NOT NULL,
			to_account TEXT NOT NULL,
			amount INTEGER NOT NULL,
			time INTEGER NOT NULL,
			meta TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_from_user ON transactions(from_user)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_kind ON transactions(kind)`,
	}

	for _, query := range queries {
		if _, err := s.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

type txMeta struct {
	ChestOpen *models.ChestOpenMeta `json:"chestOpen,omitempty"`
	Pet       *models.PetMeta       `json:"pet,omitempty"`
}

// Load reads the whole document. It returns nil when the database is empty.
func (s *SQLiteSnapshotter) Load(ctx context.Context) (*models.Economy, error) {
	econ := &models.Economy{
		Users:     make(map[string]*models.User),
		Sessions:  make(map[string]string),
		ChestFeed: make(map[string][]models.FeedEntry),
	}

	found, err := s.loadSettings(ctx, econ)
	if err != nil {
		return nil, err
	}
	users, err := s.loadUsers(ctx, econ)
	if err != nil {
		return nil, err
	}
	if !found && users == 0 {
		return nil, nil
	}
	if err := s.loadTransactions(ctx, econ); err != nil {
		return nil, err
	}
	return econ, nil
}

func (s *SQLiteSnapshotter) loadSettings(ctx context.Context, econ *models.Economy) (bool, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return false, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return false, fmt.Errorf("failed to scan setting: %w", err)
		}
		found = true

		var target any
		switch key {
		case settingsChest:
			target = &econ.Chest
		case settingsSessions:
			target = &econ.Sessions
		case settingsNextSeq:
			target = &econ.NextSeq
		default:
			continue
		}
		if err := json.Unmarshal([]byte(value), target); err != nil {
			return false, fmt.Errorf("failed to decode setting %s: %w", key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("error iterating settings: %w", err)
	}
	return found, nil
}

func (s *SQLiteSnapshotter) loadUsers(ctx context.Context, econ *models.Economy) (int, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT username, data, feed FROM users`)
	if err != nil {
		return 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var username, data, feed string
		if err := rows.Scan(&username, &data, &feed); err != nil {
			return 0, fmt.Errorf("failed to scan user: %w", err)
		}

		var user models.User
		if err := json.Unmarshal([]byte(data), &user); err != nil {
			return 0, fmt.Errorf("failed to decode user %s: %w", username, err)
		}
		var entries []models.FeedEntry
		if err := json.Unmarshal([]byte(feed), &entries); err != nil {
			return 0, fmt.Errorf("failed to decode feed of %s: %w", username, err)
		}

		econ.Users[username] = &user
		if len(entries) > 0 {
			econ.ChestFeed[username] = entries
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating users: %w", err)
	}
	return count, nil
}

func (s *SQLiteSnapshotter) loadTransactions(ctx context.Context, econ *models.Economy) error {
	rows, err := s.conn.QueryContext(ctx, `SELECT seq, kind, from_user, to_account, amount, time, meta
		FROM transactions ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.TransactionRecord
		var meta string
		if err := rows.Scan(&rec.Seq, &rec.Kind, &rec.From, &rec.To, &rec.Amount, &rec.Time, &meta); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}
		var m txMeta
		if err := json.Unmarshal([]byte(meta), &m); err != nil {
			return fmt.Errorf("failed to decode transaction %d: %w", rec.Seq, err)
		}
		rec.ChestOpen, rec.Pet = m.ChestOpen, m.Pet
		econ.Transactions = append(econ.Transactions, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating transactions: %w", err)
	}
	return nil
}

// Save writes every dirty key and the pending transactions in one database
// transaction.
func (s *SQLiteSnapshotter) Save(ctx context.Context, econ *models.Economy) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	settings := map[string]any{settingsNextSeq: econ.NextSeq}
	if econ.SettingsDirty() {
		settings[settingsChest] = econ.Chest
		settings[settingsSessions] = econ.Sessions
	}
	for key, value := range settings {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode setting %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, string(data), now); err != nil {
			return fmt.Errorf("failed to upsert setting %s: %w", key, err)
		}
	}

	for _, username := range econ.DirtyUsers() {
		user, ok := econ.User(username)
		if !ok {
			continue
		}
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to encode user %s: %w", username, err)
		}
		feed := econ.ChestFeed[username]
		if feed == nil {
			feed = []models.FeedEntry{}
		}
		feedData, err := json.Marshal(feed)
		if err != nil {
			return fmt.Errorf("failed to encode feed of %s: %w", username, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO users (username, data, feed, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(username) DO UPDATE SET
				data = excluded.data,
				feed = excluded.feed,
				updated_at = excluded.updated_at`,
			username, string(data), string(feedData), now); err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", username, err)
		}
	}

	pending := econ.PendingTransactions()
	if len(pending) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions (
			seq, kind, from_user, to_account, amount, time, meta
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range pending {
			meta, err := json.Marshal(txMeta{ChestOpen: rec.ChestOpen, Pet: rec.Pet})
			if err != nil {
				return fmt.Errorf("failed to encode transaction %d: %w", rec.Seq, err)
			}
			if _, err := stmt.ExecContext(ctx, rec.Seq, string(rec.Kind), rec.From, rec.To, rec.Amount, rec.Time, string(meta)); err != nil {
				return fmt.Errorf("failed to insert transaction %d: %w", rec.Seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CountTransactions counts persisted records of one kind for a user.
func (s *SQLiteSnapshotter) CountTransactions(ctx context.Context, username string, kind models.TransactionKind) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE from_user = ? AND kind = ?`,
		username, string(kind)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}
