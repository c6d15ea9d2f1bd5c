// Package engine implements the leech rule evaluator and action executor.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/config"
	"github.com/leechtools/leechctl/internal/model"
	"github.com/leechtools/leechctl/internal/search"
	"github.com/leechtools/leechctl/internal/service"
)

// Engine applies the configured rules to leech cards. All mutations go
// through the CollectionStore interface; with simulate set, no mutation is
// issued at all.
type Engine struct {
	col service.CollectionStore
	cfg *config.Config
}

// New creates an engine over the given collection and settings.
func New(col service.CollectionStore, cfg *config.Config) *Engine {
	return &Engine{col: col, cfg: cfg}
}

// ProgressFunc is invoked after each card of a batch has been processed.
type ProgressFunc func(processed int)

// FindLeechCards returns the ids of cards carrying the leech tag,
// optionally narrowed to an exact deck name and note-type name.
func (e *Engine) FindLeechCards(ctx context.Context, deck, noteType string) ([]int64, error) {
	query := search.LeechQuery(e.cfg.LeechTag, deck, noteType)
	slog.Debug("Searching for leech cards", "query", query)

	ids, err := e.col.FindCards(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find leech cards: %w", err)
	}
	return ids, nil
}

// ProcessCards applies the configured rules to each card in input order and
// returns the aggregated summary. Cards that no longer exist count as
// skipped; any other store failure aborts the batch and propagates.
// Processing is strictly sequential: a delete invalidates the card for any
// later reference.
func (e *Engine) ProcessCards(ctx context.Context, ids []int64, simulate bool, progress ProgressFunc) (model.Summary, error) {
	var total model.Summary
	if len(ids) == 0 {
		return total, nil
	}

	for i, id := range ids {
		card, err := e.col.GetCard(ctx, id)
		switch {
		case errors.Is(err, common.ErrNotFound):
			total.Skip()
		case err != nil:
			return total, fmt.Errorf("failed to load card %d: %w", id, err)
		default:
			summary, err := e.ApplyRulesToCard(ctx, card, simulate)
			if err != nil {
				return total, err
			}
			total.Add(summary)
		}

		if progress != nil {
			progress(i + 1)
		}
	}

	return total, nil
}

// ApplyRulesToCard walks the rule list in order and executes the action of
// each matching rule. A fired delete stops evaluation, since the card no
// longer exists; rules are otherwise not required to be mutually exclusive
// and authors are expected to order them so exactly one applies. When no
// rule matches, the summary records one skip.
//
// With simulate set, matching and action selection run identically but no
// host mutation is performed, so a dry run tallies exactly what a real run
// would do.
func (e *Engine) ApplyRulesToCard(ctx context.Context, card *model.Card, simulate bool) (model.Summary, error) {
	var summary model.Summary

	note, err := e.col.GetNote(ctx, card.NoteID)
	if err != nil {
		return summary, fmt.Errorf("failed to load note %d for card %d: %w", card.NoteID, card.ID, err)
	}

	// Dangling deck or note-type references resolve to "" so pattern
	// matching proceeds the way the host behaves.
	deckName, err := e.col.DeckName(ctx, card.DeckID)
	if err != nil && !errors.Is(err, common.ErrUnknownDeck) {
		return summary, fmt.Errorf("failed to resolve deck %d: %w", card.DeckID, err)
	}
	typeName, err := e.col.NoteTypeName(ctx, note.NoteTypeID)
	if err != nil && !errors.Is(err, common.ErrUnknownNoteType) {
		return summary, fmt.Errorf("failed to resolve note type %d: %w", note.NoteTypeID, err)
	}

	matched := false
	for _, rule := range e.cfg.Rules {
		if !rule.Matches(deckName, typeName) {
			continue
		}
		matched = true

		if err := e.execute(ctx, rule, card, note, &summary, simulate); err != nil {
			return summary, err
		}
		if rule.Action == model.ActionDelete {
			// The card is gone; later rules have nothing to act on.
			break
		}
	}

	if !matched {
		summary.Skip()
	}
	return summary, nil
}

// execute performs one rule's action on the card and records the outcome.
func (e *Engine) execute(ctx context.Context, rule model.Rule, card *model.Card, note *model.Note, summary *model.Summary, simulate bool) error {
	if !simulate {
		switch rule.Action {
		case model.ActionDelete:
			// Strip first so the tag removal is recorded before the card
			// disappears.
			if err := e.stripLeechTag(ctx, note); err != nil {
				return err
			}
			if err := e.col.RemoveCards(ctx, []int64{card.ID}); err != nil {
				return fmt.Errorf("failed to remove card %d: %w", card.ID, err)
			}

		case model.ActionReset:
			if err := e.col.ResetCards(ctx, []int64{card.ID}); err != nil {
				return fmt.Errorf("failed to reset card %d: %w", card.ID, err)
			}
			if err := e.stripLeechTag(ctx, note); err != nil {
				return err
			}

		case model.ActionDelay:
			days := rule.Delay()
			today, err := e.col.Today(ctx)
			if err != nil {
				return fmt.Errorf("failed to read day counter: %w", err)
			}
			card.Queue = model.QueueReview
			card.Type = model.CardTypeReview
			card.Interval = days
			card.Due = today + days
			if err := e.col.FlushCard(ctx, card); err != nil {
				return fmt.Errorf("failed to delay card %d: %w", card.ID, err)
			}
			if err := e.stripLeechTag(ctx, note); err != nil {
				return err
			}

		case model.ActionResetLapses:
			card.Lapses = 0
			if err := e.col.FlushCard(ctx, card); err != nil {
				return fmt.Errorf("failed to reset lapses on card %d: %w", card.ID, err)
			}
			if err := e.stripLeechTag(ctx, note); err != nil {
				return err
			}

		case model.ActionRemoveTag:
			if err := e.stripLeechTag(ctx, note); err != nil {
				return err
			}
		}
	}

	summary.Record(rule.Action)
	return nil
}

// stripLeechTag removes the configured leech tag from the note, flushing
// only when the note actually changed.
func (e *Engine) stripLeechTag(ctx context.Context, note *model.Note) error {
	if !note.RemoveTag(e.cfg.LeechTag) {
		return nil
	}
	if err := e.col.FlushNote(ctx, note); err != nil {
		return fmt.Errorf("failed to flush note %d: %w", note.ID, err)
	}
	return nil
}
