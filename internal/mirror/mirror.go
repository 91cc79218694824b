package mirror

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/store"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the sqlite connection backing the local mirror.
type DB struct {
	conn *sql.DB
}

// Open creates a new mirror database connection and ensures the schema is
// up to date. Use ":memory:" as the dsn for a throwaway in-memory mirror.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to mirror database: %w", err)
	}

	// sqlite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent use from the reconciler goroutine.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply mirror schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the mirror database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn exposes the underlying connection for store.RunInTransaction.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// CheckIntegrity runs sqlite's integrity check. A non-ok result means the
// mirror file is corrupt and the caller should Reset and trigger a full
// resync from the server.
func (db *DB) CheckIntegrity(ctx context.Context) error {
	var result string
	if err := db.conn.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("mirror integrity check failed: %s", result)
	}
	return nil
}

// Reset drops all mirrored data and sync bookkeeping. The next pull after
// a reset replays the full server state from a zero cursor. Pending local
// events are lost, which is why Reset is reserved for corruption recovery.
func (db *DB) Reset(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM review_events`,
		`DELETE FROM cards`,
		`DELETE FROM notes`,
		`DELETE FROM decks`,
		`UPDATE sync_state SET pull_cursor = NULL, last_push_at = NULL WHERE id = 1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset mirror: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

// Decks returns a store.DeckStore backed by the mirror.
func (db *DB) Decks() store.DeckStore {
	return &deckStore{db: db.conn}
}

// Notes returns a store.NoteStore backed by the mirror.
func (db *DB) Notes() store.NoteStore {
	return &noteStore{db: db.conn}
}

// Cards returns a store.CardStore backed by the mirror.
func (db *DB) Cards() store.CardStore {
	return &cardStore{db: db.conn}
}

// Reviews returns a store.ReviewStore backed by the mirror. Events appended
// through it are flagged pending_sync so the reconciler picks them up.
func (db *DB) Reviews() store.ReviewStore {
	return &reviewStore{db: db.conn}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// deckStore is the sqlite implementation of store.DeckStore.
type deckStore struct {
	db store.DBTX
}

var _ store.DeckStore = (*deckStore)(nil)

func (s *deckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	configJSON, err := json.Marshal(deck.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal deck config: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decks (id, owner_id, name, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, deck.ID, deck.OwnerID, deck.Name, configJSON, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert deck %s: %w", deck.ID, err)
	}
	return nil
}

func (s *deckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	deck, err := scanDeck(s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, config, created_at, updated_at
		FROM decks WHERE id = ?
	`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to find deck %s: %w", id, err)
	}
	return deck, nil
}

func (s *deckStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, config, created_at, updated_at
		FROM decks WHERE owner_id = ? ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	decks := make([]*domain.Deck, 0)
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

func (s *deckStore) Update(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE decks SET name = ?, updated_at = ? WHERE id = ?
	`, deck.Name, time.Now().UTC(), deck.ID)
	if err != nil {
		return fmt.Errorf("failed to update deck %s: %w", deck.ID, err)
	}
	return checkAffected(result, store.ErrDeckNotFound)
}

func (s *deckStore) UpdateConfig(ctx context.Context, deckID uuid.UUID, cfg *domain.DeckConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil deck config", store.ErrInvalidEntity)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal deck config: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE decks SET config = ?, updated_at = ? WHERE id = ?
	`, configJSON, time.Now().UTC(), deckID)
	if err != nil {
		return fmt.Errorf("failed to update deck config %s: %w", deckID, err)
	}
	return checkAffected(result, store.ErrDeckNotFound)
}

func (s *deckStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deck %s: %w", id, err)
	}
	return checkAffected(result, store.ErrDeckNotFound)
}

func (s *deckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &deckStore{db: tx}
}

// UpsertDeck writes a server-authoritative deck row, replacing any local
// copy. Sync pulls use this; decks are never locally modified.
func (db *DB) UpsertDeck(ctx context.Context, deck *domain.Deck) error {
	configJSON, err := json.Marshal(deck.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal deck config: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO decks (id, owner_id, name, config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = excluded.owner_id,
			name = excluded.name,
			config = excluded.config,
			updated_at = excluded.updated_at
	`, deck.ID, deck.OwnerID, deck.Name, configJSON, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert deck %s: %w", deck.ID, err)
	}
	return nil
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var deck domain.Deck
	var configJSON []byte

	err := row.Scan(
		&deck.ID,
		&deck.OwnerID,
		&deck.Name,
		&configJSON,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg := &domain.DeckConfig{}
	if err := json.Unmarshal(configJSON, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck config: %w", err)
	}
	deck.Config = cfg
	return &deck, nil
}

func checkAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
