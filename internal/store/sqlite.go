package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"options-strategist/internal/errors"
	"options-strategist/internal/models"
)

// SQLiteStore implements StrategyStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ StrategyStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Single row holding the strategy being edited
	CREATE TABLE IF NOT EXISTS current_strategy (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		snapshot TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	-- Named strategy collection
	CREATE TABLE IF NOT EXISTS strategies (
		name TEXT PRIMARY KEY,
		snapshot TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_strategies_updated ON strategies(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Working Strategy
// ============================================================================

// SaveCurrent replaces the working strategy.
func (s *SQLiteStore) SaveCurrent(ctx context.Context, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.NewStoreError("save_current", snap.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO current_strategy (id, snapshot, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, string(data), time.Now().UTC())
	if err != nil {
		return errors.NewStoreError("save_current", snap.Name, errors.Wrap(errors.ErrDatabaseError, err.Error()))
	}
	return nil
}

// LoadCurrent returns the working strategy. It returns ErrStrategyNotFound when
// none was saved. An unreadable snapshot is discarded and reported the same way,
// so callers start over from a fresh strategy.
func (s *SQLiteStore) LoadCurrent(ctx context.Context) (*models.Snapshot, error) {
	s.mu.RLock()
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM current_strategy WHERE id = 1`).Scan(&data)
	s.mu.RUnlock()

	if err == sql.ErrNoRows {
		return nil, errors.ErrStrategyNotFound
	}
	if err != nil {
		return nil, errors.NewStoreError("load_current", "", errors.Wrap(errors.ErrDatabaseError, err.Error()))
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		s.mu.Lock()
		_, _ = s.db.ExecContext(ctx, `DELETE FROM current_strategy WHERE id = 1`)
		s.mu.Unlock()
		return nil, errors.Wrapf(errors.ErrStrategyNotFound, "discarded unreadable working strategy: %v", err)
	}
	return &snap, nil
}

// ============================================================================
// Saved Strategies
// ============================================================================

// SaveStrategy stores the snapshot under its name, replacing any strategy with
// the same name. The original creation time is kept on overwrite.
func (s *SQLiteStore) SaveStrategy(ctx context.Context, snap models.Snapshot) (*models.SavedStrategy, error) {
	snap.Name = strings.TrimSpace(snap.Name)
	if snap.Name == "" {
		return nil, errors.NewValidationError("name", snap.Name, "strategy name cannot be empty")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, errors.NewStoreError("save_strategy", snap.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO strategies (name, snapshot, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, snap.Name, string(data), now, now)
	if err != nil {
		return nil, errors.NewStoreError("save_strategy", snap.Name, errors.Wrap(errors.ErrDatabaseError, err.Error()))
	}

	return s.getLocked(ctx, snap.Name)
}

// GetStrategy returns the saved strategy with the given name.
func (s *SQLiteStore) GetStrategy(ctx context.Context, name string) (*models.SavedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(ctx, strings.TrimSpace(name))
}

func (s *SQLiteStore) getLocked(ctx context.Context, name string) (*models.SavedStrategy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot, created_at, updated_at FROM strategies WHERE name = ?
	`, name)

	saved, err := scanStrategy(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrStrategyNotFound, "%q", name)
	}
	if err != nil {
		return nil, errors.NewStoreError("get_strategy", name, err)
	}
	return saved, nil
}

// ListStrategies returns every saved strategy ordered by name.
func (s *SQLiteStore) ListStrategies(ctx context.Context) ([]models.SavedStrategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot, created_at, updated_at FROM strategies ORDER BY name ASC
	`)
	if err != nil {
		return nil, errors.NewStoreError("list_strategies", "", errors.Wrap(errors.ErrDatabaseError, err.Error()))
	}
	defer rows.Close()

	out := []models.SavedStrategy{}
	for rows.Next() {
		saved, err := scanStrategy(rows)
		if err != nil {
			return nil, errors.NewStoreError("list_strategies", "", err)
		}
		out = append(out, *saved)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("list_strategies", "", err)
	}
	return out, nil
}

// DeleteStrategy removes a saved strategy.
func (s *SQLiteStore) DeleteStrategy(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM strategies WHERE name = ?`, name)
	if err != nil {
		return errors.NewStoreError("delete_strategy", name, errors.Wrap(errors.ErrDatabaseError, err.Error()))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewStoreError("delete_strategy", name, err)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrStrategyNotFound, "%q", name)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStrategy(row scanner) (*models.SavedStrategy, error) {
	var data string
	var saved models.SavedStrategy
	if err := row.Scan(&data, &saved.CreatedAt, &saved.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &saved.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &saved, nil
}
