package config

import "time"

// Supported persistence backends.
const (
	BackendMemory     = "memory"
	BackendFilesystem = "filesystem"
	BackendSQLite     = "sqlite"
)

const (
	// DefaultOpTimeout bounds a single storage operation issued by the
	// write-behind worker.
	DefaultOpTimeout = 5 * time.Second

	// DefaultQueueSize is the write-behind ring capacity.
	DefaultQueueSize = 4096
)

type PersistenceCfg struct {
	// Backend selects the storage implementation.
	// Supported values: "memory", "filesystem", "sqlite".
	// Defaults to "memory".
	Backend string `yaml:"backend"`

	// Dir specifies the directory where record files are stored.
	// Required by the filesystem backend; created if missing.
	Dir string `yaml:"dir"`

	// DSN is the sqlite database path.
	// Required by the sqlite backend.
	DSN string `yaml:"dsn"`

	// Gzip enables gzip compression for record files.
	// When enabled, records are written and read in compressed form,
	// reducing disk usage at the cost of additional CPU overhead.
	Gzip bool `yaml:"gzip"`

	// OpTimeout bounds a single storage operation. Defaults to 5s.
	OpTimeout time.Duration `yaml:"op_timeout"`

	// QueueSize is the write-behind queue capacity. Operations enqueued
	// while it is full are dropped and counted. Defaults to 4096.
	QueueSize int `yaml:"queue_size"`
}

func (cfg *PersistenceCfg) Enabled() bool {
	return cfg != nil
}
