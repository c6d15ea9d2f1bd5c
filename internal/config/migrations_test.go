package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_EmptyBlob(t *testing.T) {
	raw, changed := RunMigrations(map[string]any{})

	assert.True(t, changed)
	assert.Equal(t, "leech", raw["leech_tag"])
	assert.Equal(t, []any{}, raw["rules"])
	assert.Equal(t, true, raw["auto_run_enabled"])
	assert.Equal(t, true, raw["show_auto_notifications"])
	assert.Equal(t, CurrentSchemaVersion, raw["schema_version"])
}

func TestRunMigrations_NilBlob(t *testing.T) {
	raw, changed := RunMigrations(nil)

	assert.True(t, changed)
	require.NotNil(t, raw)
	assert.Equal(t, CurrentSchemaVersion, raw["schema_version"])
}

func TestRunMigrations_Idempotent(t *testing.T) {
	first, changed := RunMigrations(map[string]any{})
	require.True(t, changed)

	second, changed := RunMigrations(first)
	assert.False(t, changed)
	assert.Equal(t, first, second)
}

func TestRunMigrations_PreservesExistingValues(t *testing.T) {
	raw, changed := RunMigrations(map[string]any{
		"leech_tag":        "difficult",
		"rules":            []any{map[string]any{"deck": "Japanese::*", "action": "delay"}},
		"auto_run_enabled": false,
	})

	assert.True(t, changed)
	assert.Equal(t, "difficult", raw["leech_tag"])
	assert.Equal(t, false, raw["auto_run_enabled"])
	assert.Len(t, raw["rules"], 1)
	// Only the v3 default was missing.
	assert.Equal(t, true, raw["show_auto_notifications"])
}

func TestRunMigrations_PartialVersionRunsRemainingSteps(t *testing.T) {
	raw := map[string]any{
		"schema_version":   2,
		"leech_tag":        "leech",
		"rules":            []any{},
		"auto_run_enabled": true,
	}

	migrated, changed := RunMigrations(raw)

	assert.True(t, changed)
	assert.Equal(t, CurrentSchemaVersion, migrated["schema_version"])
	assert.Equal(t, true, migrated["show_auto_notifications"])
}

func TestRunMigrations_RepairsMalformedRules(t *testing.T) {
	raw, _ := RunMigrations(map[string]any{"rules": "not a list"})
	assert.Equal(t, []any{}, raw["rules"])
}

func TestSchemaVersion_Coercion(t *testing.T) {
	tests := []struct {
		value any
		name  string
		want  int
	}{
		{name: "missing", value: nil, want: 0},
		{name: "int", value: 2, want: 2},
		{name: "json float", value: float64(3), want: 3},
		{name: "numeric string", value: "1", want: 1},
		{name: "garbage string", value: "two", want: 0},
		{name: "wrong type", value: []any{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{}
			if tt.value != nil {
				raw["schema_version"] = tt.value
			}
			assert.Equal(t, tt.want, schemaVersion(raw))
		})
	}
}
