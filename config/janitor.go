package config

type JanitorCfg struct {
	// CallsPerSec defines how many expiry checks the janitor performs per
	// second. Each check is a cheap watermark read; a sweep only runs when
	// a deadline has actually passed. Increasing this value makes expiry
	// more responsive but increases CPU usage. Defaults to 10.
	CallsPerSec int `yaml:"calls_per_sec"`
}

func (cfg *JanitorCfg) Enabled() bool {
	return cfg != nil
}
