package mirror

const schema = `
-- Mirrored server entities. Rows are overwritten wholesale by sync pulls;
-- the only locally authored rows are review events flagged pending_sync.
CREATE TABLE IF NOT EXISTS decks (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    name TEXT NOT NULL,
    config TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    deck_id TEXT NOT NULL REFERENCES decks (id) ON DELETE CASCADE,
    term TEXT NOT NULL,
    meaning TEXT NOT NULL DEFAULT '',
    reading TEXT NOT NULL DEFAULT '',
    audio_ref TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_deck_id ON notes (deck_id);

CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    note_id TEXT NOT NULL REFERENCES notes (id) ON DELETE CASCADE,
    deck_id TEXT NOT NULL REFERENCES decks (id) ON DELETE CASCADE,
    card_type TEXT NOT NULL,
    queue TEXT NOT NULL,
    ease_factor REAL NOT NULL,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetitions INTEGER NOT NULL DEFAULT 0,
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    learning_step INTEGER NOT NULL DEFAULT 0,
    due_at TIMESTAMP,
    next_review_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (note_id, card_type)
);

CREATE INDEX IF NOT EXISTS idx_cards_deck_id ON cards (deck_id);

CREATE TABLE IF NOT EXISTS review_events (
    id TEXT PRIMARY KEY,
    card_id TEXT NOT NULL REFERENCES cards (id) ON DELETE CASCADE,
    deck_id TEXT NOT NULL,
    session_id TEXT,
    rating TEXT NOT NULL,
    queue_before TEXT NOT NULL,
    time_spent_ms INTEGER,
    user_answer TEXT,
    recording_ref TEXT,
    reviewed_at TIMESTAMP NOT NULL,
    pending_sync INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_review_events_card ON review_events (card_id, reviewed_at);
CREATE INDEX IF NOT EXISTS idx_review_events_pending ON review_events (pending_sync, reviewed_at);

-- Single-row bookkeeping for the sync reconciler.
CREATE TABLE IF NOT EXISTS sync_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    pull_cursor TIMESTAMP,
    last_push_at TIMESTAMP
);

INSERT OR IGNORE INTO sync_state (id) VALUES (1);
`
