package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "registration.deny")
// to their [FieldDoc] entries.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},

	// ── Registration ─────────────────────────────────────────────
	"registration.duration_seconds": {
		Comment: "Length of the registration window in seconds.\nCan be overridden for a single run with --duration.",
	},
	"registration.extension_seconds": {
		Comment: "If fewer than min_participants have registered when the window closes,\nregistration is extended once by this many seconds.",
	},
	"registration.min_participants": {
		Comment: "Participant count that avoids the one-time extension.",
	},
	"registration.deny": {
		Comment: "Glob patterns for usernames that are refused as invalid.\nPatterns use doublestar syntax and are matched against the whole username.",
		Alternatives: []string{
			`deny = ["admin*", "root", "test_*"]`,
		},
	},

	// ── Backup ───────────────────────────────────────────────────
	"backup.interval_seconds": {
		Comment: "Minimum seconds between participant backups. The backup is checked after\nevery registration attempt and is always written on Ctrl+C.",
	},

	// ── Announce ─────────────────────────────────────────────────
	"announce.interval_seconds": {
		Comment: "How often the remaining time and participant count are printed.",
	},

	// ── Notify ───────────────────────────────────────────────────
	"notify.webhook_url": {
		Comment: "Optional URL that receives a JSON POST with the winner after the draw.",
		Alternatives: []string{
			`webhook_url = "https://example.com/hooks/lottery"`,
		},
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration",
	},
	"log.level": {
		Comment: "Minimum diagnostic log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum size of each log file in megabytes before rotation.",
	},
}
