package config

import (
	"testing"

	"github.com/leechtools/leechctl/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Defaults(t *testing.T) {
	raw, _ := RunMigrations(map[string]any{})
	cfg := Decode(raw)

	assert.Equal(t, "leech", cfg.LeechTag)
	assert.Empty(t, cfg.Rules)
	assert.True(t, cfg.AutoRunEnabled)
	assert.True(t, cfg.ShowAutoNotifications)
	assert.Equal(t, CurrentSchemaVersion, cfg.SchemaVersion)
}

func TestDecode_NormalizesRules(t *testing.T) {
	raw, _ := RunMigrations(map[string]any{
		"leech_tag": "difficult",
		"rules": []any{
			map[string]any{"deck": "Japanese::*", "action": "delay", "delay_days": float64(0)},
			map[string]any{"action": "vaporize"},
			"not an object",
		},
		"auto_run_enabled":        false,
		"show_auto_notifications": false,
	})

	cfg := Decode(raw)

	assert.Equal(t, "difficult", cfg.LeechTag)
	assert.False(t, cfg.AutoRunEnabled)
	assert.False(t, cfg.ShowAutoNotifications)

	require.Len(t, cfg.Rules, 2)
	assert.Equal(t, model.ActionDelay, cfg.Rules[0].Action)
	require.NotNil(t, cfg.Rules[0].DelayDays)
	assert.Equal(t, 1, *cfg.Rules[0].DelayDays)
	// Unknown action normalized, not rejected.
	assert.Equal(t, model.ActionReset, cfg.Rules[1].Action)
}

func TestDecode_WrongTypedFieldsFallBack(t *testing.T) {
	raw, _ := RunMigrations(map[string]any{})
	raw["leech_tag"] = 42
	raw["auto_run_enabled"] = "yes"

	cfg := Decode(raw)

	assert.Equal(t, "leech", cfg.LeechTag)
	assert.True(t, cfg.AutoRunEnabled)
}

func TestEncode_RoundTrip(t *testing.T) {
	delay := 14
	cfg := &Config{
		LeechTag: "leech",
		Rules: []model.Rule{
			{Deck: "Deck A", NoteType: "*", Action: model.ActionDelete},
			{Deck: "*", NoteType: "Cloze", Action: model.ActionDelay, DelayDays: &delay},
		},
		SchemaVersion:         CurrentSchemaVersion,
		AutoRunEnabled:        true,
		ShowAutoNotifications: false,
	}

	decoded := Decode(cfg.Encode())

	assert.Equal(t, cfg.LeechTag, decoded.LeechTag)
	assert.Equal(t, cfg.AutoRunEnabled, decoded.AutoRunEnabled)
	assert.Equal(t, cfg.ShowAutoNotifications, decoded.ShowAutoNotifications)
	require.Len(t, decoded.Rules, 2)
	assert.Equal(t, model.ActionDelete, decoded.Rules[0].Action)
	assert.Nil(t, decoded.Rules[0].DelayDays)
	require.NotNil(t, decoded.Rules[1].DelayDays)
	assert.Equal(t, 14, *decoded.Rules[1].DelayDays)
}
