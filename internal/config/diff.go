package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	// LogLevelChanged is true when server.log_level changed.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ComparisonChanged is true when the default comparison options changed.
	ComparisonChanged bool
	NewComparison     ComparisonConfig

	// SpokenChanged is true when the spoken-answer threshold or phonetic
	// setting changed.
	SpokenChanged bool
	NewSpoken     SpokenConfig

	// PacksChanged is true when the static pack file list changed. The
	// sentence source must be rebuilt to pick it up.
	PacksChanged bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Comparison != new.Comparison {
		d.ComparisonChanged = true
		d.NewComparison = new.Comparison
	}

	if old.Spoken.Threshold != new.Spoken.Threshold ||
		old.Spoken.PhoneticEnabled() != new.Spoken.PhoneticEnabled() {
		d.SpokenChanged = true
		d.NewSpoken = new.Spoken
	}

	if !slices.Equal(old.Sentences.Packs, new.Sentences.Packs) {
		d.PacksChanged = true
	}

	return d
}
