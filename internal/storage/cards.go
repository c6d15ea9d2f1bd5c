package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/model"
)

// GetCard loads one card row.
func (c *Collection) GetCard(ctx context.Context, id int64) (*model.Card, error) {
	var card model.Card
	err := c.db.QueryRowContext(ctx,
		"SELECT id, nid, did, type, queue, due, ivl, factor, reps, lapses FROM cards WHERE id = ?",
		id,
	).Scan(&card.ID, &card.NoteID, &card.DeckID, &card.Type, &card.Queue,
		&card.Due, &card.Interval, &card.Factor, &card.Reps, &card.Lapses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load card %d: %w", id, err)
	}
	return &card, nil
}

// FlushCard writes the card's scheduling state back to the database. The
// usn is set to -1 so the host's next sync picks the change up.
func (c *Collection) FlushCard(ctx context.Context, card *model.Card) error {
	_, err := c.db.ExecContext(ctx,
		"UPDATE cards SET type = ?, queue = ?, due = ?, ivl = ?, factor = ?, reps = ?, lapses = ?, mod = ?, usn = -1 WHERE id = ?",
		card.Type, card.Queue, card.Due, card.Interval, card.Factor,
		card.Reps, card.Lapses, time.Now().Unix(), card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to flush card %d: %w", card.ID, err)
	}
	return nil
}

// ResetCards returns cards to the new queue, clearing all review history
// the scheduler accumulated.
func (c *Collection) ResetCards(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, time.Now().Unix())
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := c.db.ExecContext(ctx,
		"UPDATE cards SET type = 0, queue = 0, due = 0, ivl = 0, reps = 0, mod = ?, usn = -1 WHERE id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to reset cards: %w", err)
	}
	return nil
}

// RemoveCards deletes cards, then any notes left without cards. Both
// deletions run in one transaction so a crash can't leave a half-removed
// note behind.
func (c *Collection) RemoveCards(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cards WHERE id IN ("+placeholders(len(ids))+")", args...,
	); err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM notes WHERE id NOT IN (SELECT DISTINCT nid FROM cards)",
	); err != nil {
		return fmt.Errorf("failed to delete orphaned notes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card removal: %w", err)
	}
	return nil
}
