package am

import "github.com/spf13/viper"

// Default values
const (
	DefaultFileSuffix      = "_portrait_gen.go"
	DefaultCacheSize       = 256
	DefaultWatchDebounceMS = 300
	DefaultWatchIntervalMS = 1000
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("fill.file_suffix", DefaultFileSuffix)
	v.SetDefault("fill.strict_constraints", false)
	v.SetDefault("derive.receiver", ReceiverAuto)
	v.SetDefault("cache.portraits", DefaultCacheSize)
	v.SetDefault("log.json", false)
	v.SetDefault("watch.debounce_ms", DefaultWatchDebounceMS)
	v.SetDefault("watch.min_interval_ms", DefaultWatchIntervalMS)
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	return &Config{
		Fill:   FillConfig{FileSuffix: DefaultFileSuffix},
		Derive: DeriveConfig{Receiver: ReceiverAuto},
		Cache:  CacheConfig{Portraits: DefaultCacheSize},
		Watch:  WatchConfig{DebounceMS: DefaultWatchDebounceMS, MinIntervalMS: DefaultWatchIntervalMS},
	}
}
