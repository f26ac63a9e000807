package config

import "time"

type StorageCfg struct {
	// DefaultTTL is applied to writes that do not carry their own lifetime.
	// Zero means records never expire by default.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// MaxEntries bounds the number of records in the table. The bound is
	// enforced after every write. Zero or negative means unbounded.
	MaxEntries int64 `yaml:"max_entries"`

	// MemorySizeMB is the advisory memory budget reported by statistics.
	MemorySizeMB int64 `yaml:"memory_size_mb"`

	// MaxValueSizeMB is the hard per-value ceiling. Writes whose size
	// estimate exceeds it are rejected outright. Defaults to 20.
	MaxValueSizeMB int64 `yaml:"max_value_size_mb"`

	// CacheTimeEnabled switches entry timestamps to the coarse cached clock,
	// trading ~10ms of precision for fewer time syscalls on the hot path.
	CacheTimeEnabled bool `yaml:"cache_time_enabled"`

	IsTelemetryLogsEnabled bool          `yaml:"stat_logs_enabled"`
	TelemetryLogsInterval  time.Duration `yaml:"stat_logs_interval"`

	// EffectiveMaxEntries is derived from MaxEntries during initialization.
	// It is not read from YAML.
	EffectiveMaxEntries int64 // virtual: computed during init

	// MemoryLimitBytes is derived from MemorySizeMB during initialization.
	// It is not read from YAML.
	MemoryLimitBytes int64 // virtual: computed during init
}
