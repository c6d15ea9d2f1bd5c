package config

import (
	"log/slog"
	"strconv"
	"strings"
)

// CurrentSchemaVersion is the latest settings schema version that the
// application writes. A loaded blob at this version needs no migration.
const CurrentSchemaVersion = 3

// migration represents one settings schema migration. Apply mutates the raw
// blob in place; the runner stamps the new version number afterwards.
type migration struct {
	apply       func(raw map[string]any)
	description string
	version     int
}

var migrations = []migration{
	{
		version:     1,
		description: "Introduce leech tag, rule list, and auto-run toggle",
		apply: func(raw map[string]any) {
			setDefault(raw, "leech_tag", "leech")
			if _, ok := raw["rules"].([]any); !ok {
				raw["rules"] = []any{}
			}
			setDefault(raw, "auto_run_enabled", true)
		},
	},
	{
		version:     2,
		description: "Backfill auto-run toggle for pre-toggle installs",
		apply: func(raw map[string]any) {
			setDefault(raw, "auto_run_enabled", true)
		},
	},
	{
		version:     3,
		description: "Add notification toggle for automatic processing",
		apply: func(raw map[string]any) {
			setDefault(raw, "show_auto_notifications", true)
		},
	},
}

// RunMigrations applies all pending settings migrations to the raw blob and
// reports whether anything ran. It is safe on an already-current blob
// (no-op) and on an empty one (fills every default). A missing, null, or
// non-numeric schema_version is treated as version 0.
func RunMigrations(raw map[string]any) (map[string]any, bool) {
	if raw == nil {
		raw = make(map[string]any)
	}

	version := schemaVersion(raw)
	changed := false

	for _, m := range migrations {
		if version >= m.version {
			continue
		}

		m.apply(raw)
		raw["schema_version"] = m.version
		version = m.version
		changed = true

		slog.Debug("Applied settings migration",
			"version", m.version,
			"description", m.description)
	}

	return raw, changed
}

// schemaVersion reads the stored schema version, coercing the numeric
// shapes a JSON round-trip may produce. Malformed values mean version 0,
// never an error.
func schemaVersion(raw map[string]any) int {
	switch v := raw["schema_version"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func setDefault(raw map[string]any, key string, value any) {
	if _, ok := raw[key]; !ok {
		raw[key] = value
	}
}
