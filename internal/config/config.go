package config

import (
	"github.com/leechtools/leechctl/internal/model"
)

// DefaultLeechTag marks a card as a leech unless the user configured
// something else.
const DefaultLeechTag = "leech"

// Config is the validated leechctl settings structure. It is produced only
// by Decode after the migration chain has run; no other code operates on
// the raw blob.
type Config struct {
	LeechTag              string       `json:"leech_tag"`
	Rules                 []model.Rule `json:"rules"`
	SchemaVersion         int          `json:"schema_version"`
	AutoRunEnabled        bool         `json:"auto_run_enabled"`
	ShowAutoNotifications bool         `json:"show_auto_notifications"`
}

// Default returns the settings a fresh install starts from.
func Default() *Config {
	return &Config{
		LeechTag:              DefaultLeechTag,
		Rules:                 []model.Rule{},
		SchemaVersion:         CurrentSchemaVersion,
		AutoRunEnabled:        true,
		ShowAutoNotifications: true,
	}
}

// Decode converts a migrated raw blob into a typed Config. Every rule entry
// is normalized through model.NormalizeRule; entries that are not objects
// are dropped. Wrong-typed fields fall back to their defaults rather than
// failing.
func Decode(raw map[string]any) *Config {
	cfg := Default()

	if v, ok := raw["leech_tag"].(string); ok && v != "" {
		cfg.LeechTag = v
	}
	if v, ok := raw["auto_run_enabled"].(bool); ok {
		cfg.AutoRunEnabled = v
	}
	if v, ok := raw["show_auto_notifications"].(bool); ok {
		cfg.ShowAutoNotifications = v
	}

	if list, ok := raw["rules"].([]any); ok {
		rules := make([]model.Rule, 0, len(list))
		for _, entry := range list {
			if m, ok := entry.(map[string]any); ok {
				rules = append(rules, model.NormalizeRule(m))
			}
		}
		cfg.Rules = rules
	}

	cfg.SchemaVersion = schemaVersion(raw)
	return cfg
}

// Encode renders the typed config back into the raw blob shape the
// SettingsStore persists.
func (c *Config) Encode() map[string]any {
	rules := make([]any, 0, len(c.Rules))
	for _, rule := range c.Rules {
		entry := map[string]any{
			"deck":       rule.Deck,
			"note_type":  rule.NoteType,
			"action":     string(rule.Action),
			"delay_days": nil,
		}
		if rule.DelayDays != nil {
			entry["delay_days"] = *rule.DelayDays
		}
		rules = append(rules, entry)
	}

	return map[string]any{
		"schema_version":          c.SchemaVersion,
		"leech_tag":               c.LeechTag,
		"rules":                   rules,
		"auto_run_enabled":        c.AutoRunEnabled,
		"show_auto_notifications": c.ShowAutoNotifications,
	}
}
