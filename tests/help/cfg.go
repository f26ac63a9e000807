package help

import (
	"time"

	"github.com/adaptcache/go-adapt-cache/config"
)

func Cfg() *config.Cache {
	c := &config.Cache{
		Storage: config.StorageCfg{
			MaxEntries:             1024,
			MemorySizeMB:           64,
			IsTelemetryLogsEnabled: true,
			TelemetryLogsInterval:  time.Second * 5,
		},
		Eviction: config.EvictionCfg{
			Policy: "lru",
		},
	}
	c.AdjustConfig()
	return c
}

func PolicyCfg(policy string) *config.Cache {
	c := Cfg()
	c.Eviction.Policy = policy
	return c
}

func TinyCfg(maxEntries int64) *config.Cache {
	c := Cfg()
	c.Storage.MaxEntries = maxEntries
	c.AdjustConfig()
	return c
}

func CompressionCfg() *config.Cache {
	c := Cfg()
	c.Compression = &config.CompressionCfg{
		Level: 6,
	}
	return c
}

func MemoryPersistenceCfg() *config.Cache {
	c := Cfg()
	c.Persistence = &config.PersistenceCfg{
		Backend: config.BackendMemory,
	}
	c.AdjustConfig()
	return c
}

func FilesystemPersistenceCfg(dir string, gzip bool) *config.Cache {
	c := Cfg()
	c.Persistence = &config.PersistenceCfg{
		Backend:   config.BackendFilesystem,
		Dir:       dir,
		Gzip:      gzip,
		OpTimeout: time.Second,
		QueueSize: 256,
	}
	c.AdjustConfig()
	return c
}

func SQLitePersistenceCfg(dsn string) *config.Cache {
	c := Cfg()
	c.Persistence = &config.PersistenceCfg{
		Backend:   config.BackendSQLite,
		DSN:       dsn,
		OpTimeout: time.Second,
		QueueSize: 256,
	}
	c.AdjustConfig()
	return c
}

func JanitorCfg() *config.Cache {
	c := Cfg()
	c.Janitor = &config.JanitorCfg{
		CallsPerSec: 100,
	}
	c.AdjustConfig()
	return c
}
