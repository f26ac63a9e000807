package config

// Cache groups configuration of all cache subsystems.
// Optional components are disabled by setting their section to nil.
type Cache struct {
	Storage StorageCfg `yaml:"storage"`

	Eviction EvictionCfg `yaml:"eviction"`

	// Compression configures on-the-fly compression of cached values.
	// It applies to writes that opt in and carry an eligible payload.
	// If nil, values are always stored raw.
	Compression *CompressionCfg `yaml:"compression"`

	// Persistence configures the durable copy of the cache.
	// If nil, the cache is memory-only.
	Persistence *PersistenceCfg `yaml:"persistence"`

	// Janitor configures background expiry sweeps.
	// If nil, expired entries are removed only when touched by reads,
	// writes or an explicit garbage collection.
	Janitor *JanitorCfg `yaml:"janitor"`
}
