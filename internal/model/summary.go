package model

// Summary tallies the outcome of processing one or more leech cards.
// Exactly one counter is incremented per processed card; a delete also
// clears the leech tag as a side effect without counting toward RemoveTag.
type Summary struct {
	Delete      int `json:"delete"`
	Reset       int `json:"reset"`
	Delay       int `json:"delay"`
	ResetLapses int `json:"reset_lapses"`
	RemoveTag   int `json:"remove_tag"`
	Skipped     int `json:"skipped"`
}

// SummaryCount is one named counter in display order.
type SummaryCount struct {
	Name  string
	Count int
}

// Record increments the counter for the given action.
func (s *Summary) Record(action Action) {
	switch action {
	case ActionDelete:
		s.Delete++
	case ActionReset:
		s.Reset++
	case ActionDelay:
		s.Delay++
	case ActionResetLapses:
		s.ResetLapses++
	case ActionRemoveTag:
		s.RemoveTag++
	default:
		s.Skipped++
	}
}

// Skip marks one card as untouched by any rule.
func (s *Summary) Skip() {
	s.Skipped++
}

// Add accumulates another summary into s.
func (s *Summary) Add(other Summary) {
	s.Delete += other.Delete
	s.Reset += other.Reset
	s.Delay += other.Delay
	s.ResetLapses += other.ResetLapses
	s.RemoveTag += other.RemoveTag
	s.Skipped += other.Skipped
}

// Total returns the number of recorded outcomes.
func (s Summary) Total() int {
	return s.Delete + s.Reset + s.Delay + s.ResetLapses + s.RemoveTag + s.Skipped
}

// Empty reports whether no outcome was recorded at all.
func (s Summary) Empty() bool {
	return s.Total() == 0
}

// Changed reports whether any card would actually be modified. Skipped
// cards do not count.
func (s Summary) Changed() bool {
	return s.Total()-s.Skipped > 0
}

// Counts returns every counter with its wire name, in stable display order.
func (s Summary) Counts() []SummaryCount {
	return []SummaryCount{
		{Name: "delete", Count: s.Delete},
		{Name: "reset", Count: s.Reset},
		{Name: "delay", Count: s.Delay},
		{Name: "reset_lapses", Count: s.ResetLapses},
		{Name: "remove_tag", Count: s.RemoveTag},
		{Name: "skipped", Count: s.Skipped},
	}
}
