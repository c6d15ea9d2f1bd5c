package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leechtools/leechctl/internal/common"
	"github.com/leechtools/leechctl/internal/model"
)

// fieldSeparator divides a note's field values inside the flds column.
const fieldSeparator = "\x1f"

// GetNote loads one note row, splitting its tag and field blobs.
func (c *Collection) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	var (
		note model.Note
		tags string
		flds string
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT id, mid, tags, flds FROM notes WHERE id = ?", id,
	).Scan(&note.ID, &note.NoteTypeID, &tags, &flds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d: %w", id, err)
	}

	note.Tags = strings.Fields(tags)
	note.Fields = strings.Split(flds, fieldSeparator)
	return &note, nil
}

// FlushNote writes the note's tags back to the database. Tags are stored
// space-joined and space-wrapped, matching how the host writes them.
func (c *Collection) FlushNote(ctx context.Context, note *model.Note) error {
	_, err := c.db.ExecContext(ctx,
		"UPDATE notes SET tags = ?, mod = ?, usn = -1 WHERE id = ?",
		joinTags(note.Tags), time.Now().Unix(), note.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to flush note %d: %w", note.ID, err)
	}
	return nil
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}
