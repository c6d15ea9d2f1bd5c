package cli

import (
	"fmt"
	"strings"

	"github.com/leechtools/leechctl/internal/model"
)

// counterLabels maps summary counter names to human phrasing.
var counterLabels = map[string]string{
	"delete":       "deleted",
	"reset":        "reset",
	"delay":        "delayed",
	"reset_lapses": "lapses reset",
	"remove_tag":   "tag removed",
	"skipped":      "skipped",
}

// FormatSummary renders non-zero counters on one line, for example
// "Leech actions — deleted: 1, reset: 2". An all-zero summary renders
// as "no changes".
func FormatSummary(prefix string, s model.Summary) string {
	parts := make([]string, 0, 6)
	for _, c := range s.Counts() {
		if c.Count == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", counterLabels[c.Name], c.Count))
	}
	if len(parts) == 0 {
		return prefix + " — no changes"
	}
	return prefix + " — " + strings.Join(parts, ", ")
}

// FormatBulletSummary renders non-zero counters as one bullet per line.
func FormatBulletSummary(s model.Summary) string {
	var b strings.Builder
	for _, c := range s.Counts() {
		if c.Count == 0 {
			continue
		}
		fmt.Fprintf(&b, "  • %s: %d\n", counterLabels[c.Name], c.Count)
	}
	if b.Len() == 0 {
		return "  • no changes\n"
	}
	return b.String()
}

// FormatRuleTable renders the rule list in evaluation order. The position
// column is 1-based because that is how the rules commands address rules.
func FormatRuleTable(rules []model.Rule) string {
	if len(rules) == 0 {
		return SubtleStyle.Render("No rules configured.") + "\n"
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-4s %-25s %-25s %-20s", "#", "Deck", "Note type", "Action")))
	b.WriteString("\n")
	for i, rule := range rules {
		action := rule.Action.Label()
		if rule.Action == model.ActionDelay {
			action = fmt.Sprintf("%s (%d days)", action, rule.Delay())
		}
		fmt.Fprintf(&b, "%-4d %-25s %-25s %-20s\n", i+1, rule.Deck, rule.NoteType, action)
	}
	return b.String()
}
