package engine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/model"
	"github.com/leechtools/leechctl/internal/search"
)

// MockCollection is an in-memory CollectionStore for engine and command
// tests. Loads return copies, so an engine-side mutation only becomes
// visible after the matching flush, the same way the real adapter behaves.
type MockCollection struct {
	Cards     map[int64]*model.Card
	Notes     map[int64]*model.Note
	Decks     map[int64]string
	NoteTypes map[int64]string
	DayToday  int

	// FailWith, when set, makes every store operation fail with it.
	FailWith error

	Removed     []int64
	ResetIDs    []int64
	CardFlushes int
	NoteFlushes int

	mu sync.Mutex
}

// NewMockCollection creates an empty mock collection.
func NewMockCollection() *MockCollection {
	return &MockCollection{
		Cards:     make(map[int64]*model.Card),
		Notes:     make(map[int64]*model.Note),
		Decks:     make(map[int64]string),
		NoteTypes: make(map[int64]string),
	}
}

// AddCard registers a card together with its note, deck, and note type.
func (m *MockCollection) AddCard(card model.Card, note model.Note, deckName, noteTypeName string) {
	m.Cards[card.ID] = &card
	m.Notes[note.ID] = &note
	m.Decks[card.DeckID] = deckName
	m.NoteTypes[note.NoteTypeID] = noteTypeName
}

// FindCards filters the mock's cards with the parsed query subset.
func (m *MockCollection) FindCards(_ context.Context, query string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	q, err := search.Parse(query)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for id, card := range m.Cards {
		note := m.Notes[card.NoteID]
		if note == nil {
			continue
		}
		if q.Tag != "" && !note.HasTag(q.Tag) {
			continue
		}
		if q.Deck != "" && !deckMatches(m.Decks[card.DeckID], q.Deck) {
			continue
		}
		if q.NoteType != "" && m.NoteTypes[note.NoteTypeID] != q.NoteType {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// deckMatches treats a deck filter the way the host search does: it selects
// the named deck and its subdecks.
func deckMatches(name, filter string) bool {
	return name == filter || strings.HasPrefix(name, filter+"::")
}

// GetCard returns a copy of the stored card.
func (m *MockCollection) GetCard(_ context.Context, id int64) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	card, ok := m.Cards[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *card
	return &cp, nil
}

// GetNote returns a copy of the stored note.
func (m *MockCollection) GetNote(_ context.Context, id int64) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	note, ok := m.Notes[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *note
	cp.Tags = append([]string(nil), note.Tags...)
	cp.Fields = append([]string(nil), note.Fields...)
	return &cp, nil
}

// RemoveCards deletes cards and any notes left without cards.
func (m *MockCollection) RemoveCards(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	for _, id := range ids {
		card, ok := m.Cards[id]
		if !ok {
			continue
		}
		delete(m.Cards, id)
		m.Removed = append(m.Removed, id)

		orphaned := true
		for _, other := range m.Cards {
			if other.NoteID == card.NoteID {
				orphaned = false
				break
			}
		}
		if orphaned {
			delete(m.Notes, card.NoteID)
		}
	}
	return nil
}

// ResetCards records a scheduling reset for the given cards.
func (m *MockCollection) ResetCards(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	for _, id := range ids {
		if card, ok := m.Cards[id]; ok {
			card.Type = model.CardTypeNew
			card.Queue = model.QueueNew
			card.Due = 0
			card.Interval = 0
			card.Reps = 0
		}
		m.ResetIDs = append(m.ResetIDs, id)
	}
	return nil
}

// FlushCard persists the card copy back into the store.
func (m *MockCollection) FlushCard(_ context.Context, card *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	cp := *card
	m.Cards[card.ID] = &cp
	m.CardFlushes++
	return nil
}

// FlushNote persists the note copy back into the store.
func (m *MockCollection) FlushNote(_ context.Context, note *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	cp := *note
	cp.Tags = append([]string(nil), note.Tags...)
	cp.Fields = append([]string(nil), note.Fields...)
	m.Notes[note.ID] = &cp
	m.NoteFlushes++
	return nil
}

// DeckName resolves a deck's display name.
func (m *MockCollection) DeckName(_ context.Context, deckID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	name, ok := m.Decks[deckID]
	if !ok {
		return "", common.ErrUnknownDeck
	}
	return name, nil
}

// NoteTypeName resolves a note type's display name.
func (m *MockCollection) NoteTypeName(_ context.Context, noteTypeID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	name, ok := m.NoteTypes[noteTypeID]
	if !ok {
		return "", common.ErrUnknownNoteType
	}
	return name, nil
}

// Today returns the mock's day counter.
func (m *MockCollection) Today(_ context.Context) (int, error) {
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	return m.DayToday, nil
}

// Close is a no-op for the mock.
func (m *MockCollection) Close() error {
	return nil
}
