// Package storage implements the CollectionStore interface over an Anki
// SQLite collection file (schema 11). It is the only adapter that knows
// host storage details; the engine sees the service interface alone.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/search"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const secondsPerDay = 86400

// Collection is a SQLite-backed Anki collection.
type Collection struct {
	db        *sql.DB
	path      string
	decks     map[int64]string
	noteTypes map[int64]string
	crt       int64
	mu        sync.RWMutex
}

// OpenCollection opens an existing collection file and caches the deck and
// note-type name tables from the col row.
func OpenCollection(path string) (*Collection, error) {
	if path == "" {
		return nil, fmt.Errorf("collection path cannot be empty")
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping collection: %w", err)
	}

	c := &Collection{db: db, path: path}
	if err := c.loadColRow(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// loadColRow reads creation time and the decks/models JSON name tables.
func (c *Collection) loadColRow(ctx context.Context) error {
	var (
		crt        int64
		decksJSON  string
		modelsJSON string
	)
	err := c.db.QueryRowContext(ctx, "SELECT crt, decks, models FROM col").
		Scan(&crt, &decksJSON, &modelsJSON)
	if err != nil {
		return fmt.Errorf("failed to read col row: %w", err)
	}

	decks, err := parseNameTable(decksJSON)
	if err != nil {
		return fmt.Errorf("failed to parse deck table: %w", err)
	}
	noteTypes, err := parseNameTable(modelsJSON)
	if err != nil {
		return fmt.Errorf("failed to parse note-type table: %w", err)
	}

	c.mu.Lock()
	c.crt = crt
	c.decks = decks
	c.noteTypes = noteTypes
	c.mu.Unlock()
	return nil
}

// parseNameTable decodes the id-keyed JSON objects Anki stores in the col
// row, keeping only the display names.
func parseNameTable(blob string) (map[int64]string, error) {
	var entries map[int64]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(entries))
	for id, entry := range entries {
		names[id] = entry.Name
	}
	return names, nil
}

// FindCards executes the conjunctive query subset built by the search
// package: tag, exact deck name (with subdecks), exact note-type name.
func (c *Collection) FindCards(ctx context.Context, query string) ([]int64, error) {
	q, err := search.Parse(query)
	if err != nil {
		return nil, err
	}

	sqlQuery := "SELECT c.id FROM cards c JOIN notes n ON n.id = c.nid WHERE 1=1"
	var args []any

	if q.Tag != "" {
		sqlQuery += " AND instr(' ' || n.tags || ' ', ' ' || ? || ' ') > 0"
		args = append(args, q.Tag)
	}
	if q.Deck != "" {
		dids := c.deckIDs(q.Deck)
		if len(dids) == 0 {
			return nil, nil
		}
		sqlQuery += " AND c.did IN (" + placeholders(len(dids)) + ")"
		for _, did := range dids {
			args = append(args, did)
		}
	}
	if q.NoteType != "" {
		mid, ok := c.noteTypeID(q.NoteType)
		if !ok {
			return nil, nil
		}
		sqlQuery += " AND n.mid = ?"
		args = append(args, mid)
	}
	sqlQuery += " ORDER BY c.id"

	rows, err := c.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return ids, nil
}

// deckIDs resolves a deck filter to the named deck and its subdecks.
func (c *Collection) deckIDs(name string) []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var dids []int64
	for id, deckName := range c.decks {
		if deckName == name || strings.HasPrefix(deckName, name+"::") {
			dids = append(dids, id)
		}
	}
	return dids
}

func (c *Collection) noteTypeID(name string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for id, typeName := range c.noteTypes {
		if typeName == name {
			return id, true
		}
	}
	return 0, false
}

// DeckName resolves a deck's display name from the cached table.
func (c *Collection) DeckName(_ context.Context, deckID int64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.decks[deckID]
	if !ok {
		return "", fmt.Errorf("deck %d: %w", deckID, common.ErrUnknownDeck)
	}
	return name, nil
}

// NoteTypeName resolves a note type's display name from the cached table.
func (c *Collection) NoteTypeName(_ context.Context, noteTypeID int64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.noteTypes[noteTypeID]
	if !ok {
		return "", fmt.Errorf("note type %d: %w", noteTypeID, common.ErrUnknownNoteType)
	}
	return name, nil
}

// Today returns the collection-relative day counter, the number of whole
// days since the collection was created.
func (c *Collection) Today(_ context.Context) (int, error) {
	c.mu.RLock()
	crt := c.crt
	c.mu.RUnlock()

	elapsed := time.Now().Unix() - crt
	if elapsed < 0 {
		return 0, nil
	}
	return int(elapsed / secondsPerDay), nil
}

// Close closes the underlying database.
func (c *Collection) Close() error {
	return c.db.Close()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
