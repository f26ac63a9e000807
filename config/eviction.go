package config

type EvictionCfg struct {
	// Policy names the ordering records compete under when the table is over
	// capacity.
	// Supported values:
	//   - "lru":      least recently accessed evicts first
	//   - "lfu":      least frequently accessed evicts first
	//   - "ttl":      nearest expiry evicts first, no expiry sorts last
	//   - "adaptive": lowest combined score evicts first
	//
	// An empty value falls back to "lru".
	Policy string `yaml:"policy"`

	// TrimFactor defines how far an explicit garbage collection shrinks the
	// table, as a fraction of the effective capacity.
	//
	// Example:
	//   TrimFactor: 0.90 // trim down to 90% of capacity
	//
	// Defaults to 0.9.
	TrimFactor float64 `yaml:"trim_factor"`
}
