package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adaptcache/go-adapt-cache/internal/policy"
)

const (
	DefaultMaxValueSizeMB     = 20
	DefaultTrimFactor         = 0.9
	DefaultJanitorCallsPerSec = 10
	DefaultTelemetryInterval  = 5 * time.Second
)

// AdjustConfig computes the virtual fields and fills defaults. It is
// idempotent and must run before the config reaches the engine.
func (cfg *Cache) AdjustConfig() {
	if cfg.Storage.MaxEntries > 0 {
		cfg.Storage.EffectiveMaxEntries = cfg.Storage.MaxEntries
	} else {
		cfg.Storage.EffectiveMaxEntries = math.MaxInt64
	}
	if cfg.Storage.MaxValueSizeMB <= 0 {
		cfg.Storage.MaxValueSizeMB = DefaultMaxValueSizeMB
	}
	cfg.Storage.MemoryLimitBytes = cfg.Storage.MemorySizeMB << 20
	if cfg.Storage.TelemetryLogsInterval <= 0 {
		cfg.Storage.TelemetryLogsInterval = DefaultTelemetryInterval
	}

	if cfg.Eviction.TrimFactor <= 0 || cfg.Eviction.TrimFactor > 1 {
		cfg.Eviction.TrimFactor = DefaultTrimFactor
	}

	if cfg.Persistence.Enabled() {
		if cfg.Persistence.Backend == "" {
			cfg.Persistence.Backend = BackendMemory
		}
		if cfg.Persistence.OpTimeout <= 0 {
			cfg.Persistence.OpTimeout = DefaultOpTimeout
		}
		if cfg.Persistence.QueueSize <= 0 {
			cfg.Persistence.QueueSize = DefaultQueueSize
		}
	}

	if cfg.Janitor.Enabled() && cfg.Janitor.CallsPerSec <= 0 {
		cfg.Janitor.CallsPerSec = DefaultJanitorCallsPerSec
	}
}

// Validate rejects values AdjustConfig cannot repair.
func (cfg *Cache) Validate() error {
	if cfg.Eviction.Policy != "" && !policy.Valid(policy.Name(cfg.Eviction.Policy)) {
		return fmt.Errorf("unknown eviction policy %q", cfg.Eviction.Policy)
	}
	if cfg.Persistence.Enabled() {
		switch cfg.Persistence.Backend {
		case "", BackendMemory, BackendFilesystem, BackendSQLite:
		default:
			return fmt.Errorf("unknown persistence backend %q", cfg.Persistence.Backend)
		}
		if cfg.Persistence.Backend == BackendFilesystem && cfg.Persistence.Dir == "" {
			return fmt.Errorf("filesystem persistence requires a dir")
		}
		if cfg.Persistence.Backend == BackendSQLite && cfg.Persistence.DSN == "" {
			return fmt.Errorf("sqlite persistence requires a dsn")
		}
	}
	return nil
}

func LoadConfig(path string) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Cache
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	if cfg == nil {
		cfg = &Cache{}
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}
	cfg.AdjustConfig()

	return cfg, nil
}
