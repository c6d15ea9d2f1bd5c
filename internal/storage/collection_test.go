package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/model"
	"github.com/leechtools/leechctl/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a minimal schema-11 collection file on disk.
type fixture struct {
	t    *testing.T
	path string
	db   *sql.DB

	decks     map[int64]string
	noteTypes map[int64]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "collection.anki2")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	const schema = `
		CREATE TABLE col (
			id INTEGER PRIMARY KEY,
			crt INTEGER NOT NULL,
			mod INTEGER NOT NULL,
			scm INTEGER NOT NULL,
			ver INTEGER NOT NULL,
			dty INTEGER NOT NULL,
			usn INTEGER NOT NULL,
			ls INTEGER NOT NULL,
			conf TEXT NOT NULL,
			models TEXT NOT NULL,
			decks TEXT NOT NULL,
			dconf TEXT NOT NULL,
			tags TEXT NOT NULL
		);
		CREATE TABLE notes (
			id INTEGER PRIMARY KEY,
			guid TEXT NOT NULL,
			mid INTEGER NOT NULL,
			mod INTEGER NOT NULL,
			usn INTEGER NOT NULL,
			tags TEXT NOT NULL,
			flds TEXT NOT NULL,
			sfld TEXT NOT NULL,
			csum INTEGER NOT NULL,
			flags INTEGER NOT NULL,
			data TEXT NOT NULL
		);
		CREATE TABLE cards (
			id INTEGER PRIMARY KEY,
			nid INTEGER NOT NULL,
			did INTEGER NOT NULL,
			ord INTEGER NOT NULL,
			mod INTEGER NOT NULL,
			usn INTEGER NOT NULL,
			type INTEGER NOT NULL,
			queue INTEGER NOT NULL,
			due INTEGER NOT NULL,
			ivl INTEGER NOT NULL,
			factor INTEGER NOT NULL,
			reps INTEGER NOT NULL,
			lapses INTEGER NOT NULL,
			left INTEGER NOT NULL,
			odue INTEGER NOT NULL,
			odid INTEGER NOT NULL,
			flags INTEGER NOT NULL,
			data TEXT NOT NULL
		);`
	_, err = db.Exec(schema)
	require.NoError(t, err)

	return &fixture{
		t:         t,
		path:      path,
		db:        db,
		decks:     make(map[int64]string),
		noteTypes: make(map[int64]string),
	}
}

func (f *fixture) addDeck(id int64, name string) {
	f.decks[id] = name
}

func (f *fixture) addNoteType(id int64, name string) {
	f.noteTypes[id] = name
}

func (f *fixture) addNote(id, mid int64, tags, flds string) {
	_, err := f.db.Exec(
		"INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data) VALUES (?, ?, ?, ?, 0, ?, ?, '', 0, 0, '')",
		id, fmt.Sprintf("guid%d", id), mid, time.Now().Unix(), tags, flds,
	)
	require.NoError(f.t, err)
}

func (f *fixture) addCard(card model.Card) {
	_, err := f.db.Exec(
		"INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data) VALUES (?, ?, ?, 0, ?, 0, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, '')",
		card.ID, card.NoteID, card.DeckID, time.Now().Unix(),
		card.Type, card.Queue, card.Due, card.Interval, card.Factor, card.Reps, card.Lapses,
	)
	require.NoError(f.t, err)
}

// open writes the col row from the accumulated name tables and opens the
// collection under test.
func (f *fixture) open(crt int64) *Collection {
	f.t.Helper()

	f.db.Exec("DELETE FROM col")
	_, err := f.db.Exec(
		"INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags) VALUES (1, ?, 0, 0, 11, 0, 0, 0, '{}', ?, ?, '{}', '{}')",
		crt, nameTableJSON(f.t, f.noteTypes), nameTableJSON(f.t, f.decks),
	)
	require.NoError(f.t, err)

	col, err := OpenCollection(f.path)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = col.Close() })
	return col
}

func nameTableJSON(t *testing.T, names map[int64]string) string {
	t.Helper()
	table := make(map[string]map[string]any, len(names))
	for id, name := range names {
		table[fmt.Sprint(id)] = map[string]any{"name": name}
	}
	blob, err := json.Marshal(table)
	require.NoError(t, err)
	return string(blob)
}

func seedCollection(t *testing.T) (*fixture, *Collection) {
	t.Helper()

	f := newFixture(t)
	f.addDeck(1, "Default")
	f.addDeck(2, "Japanese")
	f.addDeck(3, "Japanese::Verbs")
	f.addNoteType(100, "Basic")
	f.addNoteType(101, "Cloze")

	f.addNote(1001, 100, " leech vocab ", "front\x1fback")
	f.addNote(1002, 100, " vocab ", "q\x1fa")
	f.addNote(1003, 101, " leech ", "cloze text")

	f.addCard(model.Card{ID: 1, NoteID: 1001, DeckID: 1, Type: 2, Queue: 2, Due: 50, Interval: 20, Factor: 2500, Reps: 12, Lapses: 8})
	f.addCard(model.Card{ID: 2, NoteID: 1002, DeckID: 2, Type: 2, Queue: 2, Due: 30, Interval: 10, Factor: 2300, Reps: 5, Lapses: 1})
	f.addCard(model.Card{ID: 3, NoteID: 1003, DeckID: 3, Type: 2, Queue: 2, Due: 40, Interval: 15, Factor: 2100, Reps: 9, Lapses: 9})

	return f, f.open(time.Now().Add(-100 * 24 * time.Hour).Unix())
}

func TestOpenCollection_MissingPath(t *testing.T) {
	_, err := OpenCollection("")
	assert.Error(t, err)
}

func TestOpenCollection_NotACollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.anki2")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE t (id INTEGER)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenCollection(path)
	assert.Error(t, err)
}

func TestFindCards_ByTag(t *testing.T) {
	_, col := seedCollection(t)

	ids, err := col.FindCards(context.Background(), search.LeechQuery("leech", "", ""))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
}

func TestFindCards_DeckFilterIncludesSubdecks(t *testing.T) {
	_, col := seedCollection(t)
	ctx := context.Background()

	ids, err := col.FindCards(ctx, search.LeechQuery("leech", "Japanese", ""))
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	ids, err = col.FindCards(ctx, search.LeechQuery("", "Japanese", ""))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)
}

func TestFindCards_NoteTypeFilter(t *testing.T) {
	_, col := seedCollection(t)

	ids, err := col.FindCards(context.Background(), search.LeechQuery("leech", "", "Cloze"))
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)
}

func TestFindCards_UnknownDeckMatchesNothing(t *testing.T) {
	_, col := seedCollection(t)

	ids, err := col.FindCards(context.Background(), search.LeechQuery("leech", "Nope", ""))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFindCards_InvalidQuery(t *testing.T) {
	_, col := seedCollection(t)

	_, err := col.FindCards(context.Background(), "is:due")
	assert.ErrorIs(t, err, common.ErrInvalidQuery)
}

func TestGetCard(t *testing.T) {
	_, col := seedCollection(t)

	card, err := col.GetCard(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), card.NoteID)
	assert.Equal(t, int64(1), card.DeckID)
	assert.Equal(t, 8, card.Lapses)
	assert.Equal(t, 20, card.Interval)
}

func TestGetCard_NotFound(t *testing.T) {
	_, col := seedCollection(t)

	_, err := col.GetCard(context.Background(), 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetNote(t *testing.T) {
	_, col := seedCollection(t)

	note, err := col.GetNote(context.Background(), 1001)
	require.NoError(t, err)

	assert.Equal(t, int64(100), note.NoteTypeID)
	assert.Equal(t, []string{"leech", "vocab"}, note.Tags)
	assert.Equal(t, []string{"front", "back"}, note.Fields)
}

func TestGetNote_NotFound(t *testing.T) {
	_, col := seedCollection(t)

	_, err := col.GetNote(context.Background(), 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFlushCard_RoundTrip(t *testing.T) {
	_, col := seedCollection(t)
	ctx := context.Background()

	card, err := col.GetCard(ctx, 1)
	require.NoError(t, err)

	card.Queue = model.QueueReview
	card.Type = model.CardTypeReview
	card.Interval = 7
	card.Due = 107
	card.Lapses = 0
	require.NoError(t, col.FlushCard(ctx, card))

	stored, err := col.GetCard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.Interval)
	assert.Equal(t, 107, stored.Due)
	assert.Zero(t, stored.Lapses)
}

func TestFlushCard_MarksForSync(t *testing.T) {
	f, col := seedCollection(t)
	ctx := context.Background()

	card, err := col.GetCard(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, col.FlushCard(ctx, card))

	var usn int
	require.NoError(t, f.db.QueryRow("SELECT usn FROM cards WHERE id = 1").Scan(&usn))
	assert.Equal(t, -1, usn)
}

func TestFlushNote_TagsSpaceWrapped(t *testing.T) {
	f, col := seedCollection(t)
	ctx := context.Background()

	note, err := col.GetNote(ctx, 1001)
	require.NoError(t, err)
	note.RemoveTag("leech")
	require.NoError(t, col.FlushNote(ctx, note))

	var tags string
	require.NoError(t, f.db.QueryRow("SELECT tags FROM notes WHERE id = 1001").Scan(&tags))
	assert.Equal(t, " vocab ", tags)

	// A note left with no tags stores the empty string, not two spaces.
	note.Tags = nil
	require.NoError(t, col.FlushNote(ctx, note))
	require.NoError(t, f.db.QueryRow("SELECT tags FROM notes WHERE id = 1001").Scan(&tags))
	assert.Equal(t, "", tags)
}

func TestResetCards(t *testing.T) {
	_, col := seedCollection(t)
	ctx := context.Background()

	require.NoError(t, col.ResetCards(ctx, []int64{1}))

	card, err := col.GetCard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CardTypeNew, card.Type)
	assert.Equal(t, model.QueueNew, card.Queue)
	assert.Zero(t, card.Due)
	assert.Zero(t, card.Interval)
	assert.Zero(t, card.Reps)
}

func TestRemoveCards_DeletesOrphanedNotes(t *testing.T) {
	_, col := seedCollection(t)
	ctx := context.Background()

	require.NoError(t, col.RemoveCards(ctx, []int64{1}))

	_, err := col.GetCard(ctx, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = col.GetNote(ctx, 1001)
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Unrelated rows survive.
	_, err = col.GetCard(ctx, 2)
	assert.NoError(t, err)
}

func TestRemoveCards_KeepsNotesWithSiblings(t *testing.T) {
	f := newFixture(t)
	f.addDeck(1, "Default")
	f.addNoteType(100, "Basic")
	f.addNote(1001, 100, " leech ", "a\x1fb")
	f.addCard(model.Card{ID: 1, NoteID: 1001, DeckID: 1})
	f.addCard(model.Card{ID: 2, NoteID: 1001, DeckID: 1})
	col := f.open(time.Now().Unix())
	ctx := context.Background()

	require.NoError(t, col.RemoveCards(ctx, []int64{1}))

	_, err := col.GetNote(ctx, 1001)
	assert.NoError(t, err)
}

func TestDeckName(t *testing.T) {
	_, col := seedCollection(t)
	ctx := context.Background()

	name, err := col.DeckName(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Japanese::Verbs", name)

	_, err = col.DeckName(ctx, 99)
	assert.ErrorIs(t, err, common.ErrUnknownDeck)
}

func TestNoteTypeName(t *testing.T) {
	_, col := seedCollection(t)
	ctx := context.Background()

	name, err := col.NoteTypeName(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "Cloze", name)

	_, err = col.NoteTypeName(ctx, 99)
	assert.ErrorIs(t, err, common.ErrUnknownNoteType)
}

func TestToday(t *testing.T) {
	f := newFixture(t)
	f.addDeck(1, "Default")
	f.addNoteType(100, "Basic")
	col := f.open(time.Now().Add(-10*24*time.Hour - time.Hour).Unix())

	today, err := col.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, today)
}
