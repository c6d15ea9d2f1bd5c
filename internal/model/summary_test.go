package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummary_Record(t *testing.T) {
	var s Summary
	s.Record(ActionDelete)
	s.Record(ActionDelay)
	s.Record(ActionDelay)
	s.Record(Action("bogus"))

	assert.Equal(t, 1, s.Delete)
	assert.Equal(t, 2, s.Delay)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 4, s.Total())
}

func TestSummary_Add(t *testing.T) {
	total := Summary{}
	total.Add(Summary{Reset: 2, Skipped: 1})
	total.Add(Summary{ResetLapses: 3, RemoveTag: 1})

	assert.Equal(t, Summary{Reset: 2, ResetLapses: 3, RemoveTag: 1, Skipped: 1}, total)
	assert.Equal(t, 7, total.Total())
}

func TestSummary_Changed(t *testing.T) {
	assert.False(t, Summary{}.Changed())
	assert.False(t, Summary{Skipped: 5}.Changed())
	assert.True(t, Summary{RemoveTag: 1, Skipped: 5}.Changed())
}

func TestSummary_Counts(t *testing.T) {
	s := Summary{Delete: 1, Reset: 2, Delay: 3, ResetLapses: 4, RemoveTag: 5, Skipped: 6}

	counts := s.Counts()
	names := make([]string, 0, len(counts))
	for _, c := range counts {
		names = append(names, c.Name)
	}

	assert.Equal(t, []string{"delete", "reset", "delay", "reset_lapses", "remove_tag", "skipped"}, names)
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, 6, counts[5].Count)
}

func TestNote_RemoveTag(t *testing.T) {
	note := Note{Tags: []string{"leech", "verb"}}

	assert.True(t, note.RemoveTag("leech"))
	assert.Equal(t, []string{"verb"}, note.Tags)

	// Already absent: no change reported.
	assert.False(t, note.RemoveTag("leech"))
	assert.Equal(t, []string{"verb"}, note.Tags)
}
