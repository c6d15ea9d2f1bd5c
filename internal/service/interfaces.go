// Package service defines the interfaces for leechctl's external collaborators.
package service

import (
	"context"

	"github.com/leechtools/leechctl/internal/model"
)

// CollectionStore is the capability interface over the host flashcard
// collection. It is the single stable contract the engine depends on; a
// storage adapter resolves host-version differences behind it.
type CollectionStore interface {
	// FindCards runs a search query and returns matching card ids.
	FindCards(ctx context.Context, query string) ([]int64, error)
	// GetCard returns common.ErrNotFound for ids that no longer exist.
	GetCard(ctx context.Context, id int64) (*model.Card, error)
	GetNote(ctx context.Context, id int64) (*model.Note, error)

	// RemoveCards permanently deletes cards from the collection.
	RemoveCards(ctx context.Context, ids []int64) error
	// ResetCards resets scheduling progress on the given cards.
	ResetCards(ctx context.Context, ids []int64) error
	// FlushCard persists a mutated card's scheduling fields.
	FlushCard(ctx context.Context, card *model.Card) error
	// FlushNote persists a mutated note's tags and fields.
	FlushNote(ctx context.Context, note *model.Note) error

	// Deck and note-type display-name lookup by id.
	DeckName(ctx context.Context, deckID int64) (string, error)
	NoteTypeName(ctx context.Context, noteTypeID int64) (string, error)

	// Today is the host-relative day counter used for delay computation.
	Today(ctx context.Context) (int, error)

	Close() error
}

// SettingsStore persists the raw settings blob the migration chain
// operates on. The blob is read fully at session start and written back
// wholesale on save; last writer wins.
type SettingsStore interface {
	ReadSettings(ctx context.Context) (map[string]any, error)
	WriteSettings(ctx context.Context, raw map[string]any) error
}

// Notifier surfaces the outcome of automatic processing to the user.
type Notifier interface {
	Notify(cardID int64, summary model.Summary)
}
