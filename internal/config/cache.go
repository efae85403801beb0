package config

import "time"

// CacheConfig defines settings for the per-principal profile cache.
// When Enabled is false every lookup misses and the durable store is read
// directly.  Prefix namespaces the keys so several deployments can share a
// Redis database.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads PROFILE_CACHE_* variables.  Defaults are used when
// variables are not set.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled: envBool("PROFILE_CACHE_ENABLED", true),
		TTL:     envDur("PROFILE_CACHE_TTL", time.Hour),
		Prefix:  envStr("PROFILE_CACHE_PREFIX", "profile"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return cfg
}
