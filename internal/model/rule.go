// Package model defines the core data structures for leechctl.
package model

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Action identifies what happens to a leech card when a rule fires.
type Action string

// The closed set of supported actions.
const (
	ActionReset       Action = "reset"
	ActionDelay       Action = "delay"
	ActionDelete      Action = "delete"
	ActionResetLapses Action = "reset_lapses"
	ActionRemoveTag   Action = "remove_tag"
)

// DefaultDelayDays is the delay applied when a delay rule does not specify one.
const DefaultDelayDays = 7

// ActionOption pairs an action with its display label.
type ActionOption struct {
	Label  string
	Action Action
}

// ActionOptions lists the supported actions in display order.
var ActionOptions = []ActionOption{
	{Label: "Reset progress", Action: ActionReset},
	{Label: "Delay card", Action: ActionDelay},
	{Label: "Delete card", Action: ActionDelete},
	{Label: "Reset lapse count", Action: ActionResetLapses},
	{Label: "Remove leech tag", Action: ActionRemoveTag},
}

// ParseAction normalizes a raw action string into a known Action. Both the
// stored value ("reset_lapses") and the display label ("Reset lapse count")
// are accepted, case-insensitively. Unrecognized input falls back to reset
// rather than failing, so a hand-edited settings file cannot brick a rule.
func ParseAction(raw string) Action {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, opt := range ActionOptions {
		if s == string(opt.Action) || s == strings.ToLower(opt.Label) {
			return opt.Action
		}
	}
	return ActionReset
}

// Valid reports whether a belongs to the closed action set.
func (a Action) Valid() bool {
	for _, opt := range ActionOptions {
		if a == opt.Action {
			return true
		}
	}
	return false
}

// Label returns the display label for the action.
func (a Action) Label() string {
	for _, opt := range ActionOptions {
		if a == opt.Action {
			return opt.Label
		}
	}
	return string(a)
}

// Rule describes how leech cards in matching decks and note types are
// treated. Rules are evaluated in list order; the first matching rule
// governs the card.
type Rule struct {
	DelayDays *int   `json:"delay_days"`
	Deck      string `json:"deck"`
	NoteType  string `json:"note_type"`
	Action    Action `json:"action"`
}

// NormalizeRule builds a canonical Rule from one raw configuration entry.
// Missing patterns default to "*", unknown actions normalize to reset, and
// the delay is clamped to at least one day for delay rules and dropped
// entirely for everything else.
func NormalizeRule(raw map[string]any) Rule {
	rule := Rule{Deck: "*", NoteType: "*"}
	if v, ok := raw["deck"].(string); ok && v != "" {
		rule.Deck = v
	}
	if v, ok := raw["note_type"].(string); ok && v != "" {
		rule.NoteType = v
	}

	action := string(ActionReset)
	if v, ok := raw["action"].(string); ok {
		action = v
	}
	rule.Action = ParseAction(action)

	if rule.Action == ActionDelay {
		delay := DefaultDelayDays
		if d, ok := intValue(raw["delay_days"]); ok {
			delay = max(1, d)
		}
		rule.DelayDays = &delay
	}
	return rule
}

// Delay returns the effective delay in days for a delay rule.
func (r Rule) Delay() int {
	if r.DelayDays == nil {
		return DefaultDelayDays
	}
	return max(1, *r.DelayDays)
}

// Matches reports whether the rule applies to a card in the named deck with
// the named note type. Patterns use shell-style globbing (*, ?, character
// classes), matched case-sensitively. No character is treated as a
// separator: * crosses "::" and / alike, so the universal "*" really does
// match every name. A pattern that does not compile matches nothing.
func (r Rule) Matches(deckName, noteTypeName string) bool {
	return globMatch(r.Deck, deckName) && globMatch(r.NoteType, noteTypeName)
}

func globMatch(pattern, name string) bool {
	re, err := globRegexp(pattern)
	return err == nil && re.MatchString(name)
}

// globRegexp translates a glob pattern into an anchored regular expression.
// * becomes .*, ? becomes ., and [...] carries over as a character class
// with ! accepted alongside ^ for negation.
func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`\A`)

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			j := i + 1
			if j < len(runes) && (runes[j] == '!' || runes[j] == '^') {
				j++
			}
			// A ] directly after the opening (or negation) is a literal.
			if j < len(runes) && runes[j] == ']' {
				j++
			}
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j >= len(runes) {
				return nil, errors.New("unterminated character class")
			}

			class := string(runes[i+1 : j])
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	b.WriteString(`\z`)
	return regexp.Compile(b.String())
}

// intValue coerces the numeric shapes a JSON blob may carry for a delay.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if n == "" {
			return 0, false
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
