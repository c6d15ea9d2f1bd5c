package model

import "slices"

// Card queue and type states, matching the values the scheduler persists.
const (
	QueueNew    = 0
	QueueLearn  = 1
	QueueReview = 2

	CardTypeNew    = 0
	CardTypeLearn  = 1
	CardTypeReview = 2
)

// Card is the scheduling state of a single card.
type Card struct {
	ID       int64
	NoteID   int64
	DeckID   int64
	Type     int
	Queue    int
	Due      int
	Interval int
	Factor   int
	Reps     int
	Lapses   int
}

// Note holds the fields and tags shared by a note's cards.
type Note struct {
	ID         int64
	NoteTypeID int64
	Tags       []string
	Fields     []string
}

// HasTag reports whether the note carries the given tag. Tags compare
// exactly, the same way the host stores them.
func (n *Note) HasTag(tag string) bool {
	return slices.Contains(n.Tags, tag)
}

// RemoveTag deletes every occurrence of tag and reports whether the note
// changed. Callers only need to flush the note when it did.
func (n *Note) RemoveTag(tag string) bool {
	if !n.HasTag(tag) {
		return false
	}
	kept := n.Tags[:0]
	for _, t := range n.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	n.Tags = kept
	return true
}
