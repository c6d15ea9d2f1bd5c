// Package testutil builds throwaway Anki collection files for tests that
// exercise the real SQLite adapter end to end.
package testutil

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leechtools/leechctl/internal/model"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// CollectionBuilder accumulates decks, note types, notes, and cards, then
// materializes them as a schema-11 collection file.
type CollectionBuilder struct {
	crt       int64
	decks     map[int64]string
	noteTypes map[int64]string
	notes     []noteRow
	cards     []model.Card
}

type noteRow struct {
	id   int64
	mid  int64
	tags string
	flds string
}

// NewCollectionBuilder starts an empty collection created 100 days ago.
func NewCollectionBuilder() *CollectionBuilder {
	return &CollectionBuilder{
		crt:       time.Now().Add(-100 * 24 * time.Hour).Unix(),
		decks:     make(map[int64]string),
		noteTypes: make(map[int64]string),
	}
}

// CreatedDaysAgo overrides the collection creation time.
func (b *CollectionBuilder) CreatedDaysAgo(days int) *CollectionBuilder {
	b.crt = time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	return b
}

// WithDeck registers a deck name.
func (b *CollectionBuilder) WithDeck(id int64, name string) *CollectionBuilder {
	b.decks[id] = name
	return b
}

// WithNoteType registers a note-type name.
func (b *CollectionBuilder) WithNoteType(id int64, name string) *CollectionBuilder {
	b.noteTypes[id] = name
	return b
}

// WithNote registers a note. Tags are stored space-wrapped the way the
// host writes them.
func (b *CollectionBuilder) WithNote(id, noteTypeID int64, tags string, fields ...string) *CollectionBuilder {
	flds := ""
	for i, f := range fields {
		if i > 0 {
			flds += "\x1f"
		}
		flds += f
	}
	if tags != "" {
		tags = " " + tags + " "
	}
	b.notes = append(b.notes, noteRow{id: id, mid: noteTypeID, tags: tags, flds: flds})
	return b
}

// WithCard registers a card row.
func (b *CollectionBuilder) WithCard(card model.Card) *CollectionBuilder {
	b.cards = append(b.cards, card)
	return b
}

// Build writes the collection file into a temp dir and returns its path.
func (b *CollectionBuilder) Build(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "collection.anki2")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	const schema = `
		CREATE TABLE col (
			id INTEGER PRIMARY KEY, crt INTEGER NOT NULL, mod INTEGER NOT NULL,
			scm INTEGER NOT NULL, ver INTEGER NOT NULL, dty INTEGER NOT NULL,
			usn INTEGER NOT NULL, ls INTEGER NOT NULL, conf TEXT NOT NULL,
			models TEXT NOT NULL, decks TEXT NOT NULL, dconf TEXT NOT NULL,
			tags TEXT NOT NULL
		);
		CREATE TABLE notes (
			id INTEGER PRIMARY KEY, guid TEXT NOT NULL, mid INTEGER NOT NULL,
			mod INTEGER NOT NULL, usn INTEGER NOT NULL, tags TEXT NOT NULL,
			flds TEXT NOT NULL, sfld TEXT NOT NULL, csum INTEGER NOT NULL,
			flags INTEGER NOT NULL, data TEXT NOT NULL
		);
		CREATE TABLE cards (
			id INTEGER PRIMARY KEY, nid INTEGER NOT NULL, did INTEGER NOT NULL,
			ord INTEGER NOT NULL, mod INTEGER NOT NULL, usn INTEGER NOT NULL,
			type INTEGER NOT NULL, queue INTEGER NOT NULL, due INTEGER NOT NULL,
			ivl INTEGER NOT NULL, factor INTEGER NOT NULL, reps INTEGER NOT NULL,
			lapses INTEGER NOT NULL, left INTEGER NOT NULL, odue INTEGER NOT NULL,
			odid INTEGER NOT NULL, flags INTEGER NOT NULL, data TEXT NOT NULL
		);`
	_, err = db.Exec(schema)
	require.NoError(t, err)

	_, err = db.Exec(
		"INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags) VALUES (1, ?, 0, 0, 11, 0, 0, 0, '{}', ?, ?, '{}', '{}')",
		b.crt, marshalNameTable(t, b.noteTypes), marshalNameTable(t, b.decks),
	)
	require.NoError(t, err)

	for _, n := range b.notes {
		_, err = db.Exec(
			"INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data) VALUES (?, ?, ?, ?, 0, ?, ?, '', 0, 0, '')",
			n.id, fmt.Sprintf("guid%d", n.id), n.mid, time.Now().Unix(), n.tags, n.flds,
		)
		require.NoError(t, err)
	}

	for _, c := range b.cards {
		_, err = db.Exec(
			"INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data) VALUES (?, ?, ?, 0, ?, 0, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, '')",
			c.ID, c.NoteID, c.DeckID, time.Now().Unix(),
			c.Type, c.Queue, c.Due, c.Interval, c.Factor, c.Reps, c.Lapses,
		)
		require.NoError(t, err)
	}

	return path
}

func marshalNameTable(t *testing.T, names map[int64]string) string {
	t.Helper()
	table := make(map[string]map[string]any, len(names))
	for id, name := range names {
		table[fmt.Sprint(id)] = map[string]any{"name": name}
	}
	blob, err := json.Marshal(table)
	require.NoError(t, err)
	return string(blob)
}
