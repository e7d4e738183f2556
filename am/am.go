// Package am loads portrait configuration ("am" as in "I am configured as").
//
// Sources merge in precedence order: defaults, /etc/portrait/portrait.toml,
// ~/.portrait/portrait.toml, the nearest portrait.toml walking up from the
// working directory, then PORTRAIT_* environment variables.
package am

// ConfigFileName is the project and user config file name
const ConfigFileName = "portrait.toml"

// Config represents the generator configuration
type Config struct {
	Fill   FillConfig   `mapstructure:"fill" toml:"fill" json:"fill" yaml:"fill"`
	Derive DeriveConfig `mapstructure:"derive" toml:"derive" json:"derive" yaml:"derive"`
	Cache  CacheConfig  `mapstructure:"cache" toml:"cache" json:"cache" yaml:"cache"`
	Log    LogConfig    `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
	Watch  WatchConfig  `mapstructure:"watch" toml:"watch" json:"watch" yaml:"watch"`
}

// FillConfig configures output of fill and derive
type FillConfig struct {
	// FileSuffix replaces ".go" on the source file name to form the output file name
	FileSuffix string `mapstructure:"file_suffix" toml:"file_suffix" json:"file_suffix" yaml:"file_suffix"`
	// StrictConstraints turns unverifiable type-parameter constraints into errors
	StrictConstraints bool `mapstructure:"strict_constraints" toml:"strict_constraints" json:"strict_constraints" yaml:"strict_constraints"`
}

// Receiver forms for derived methods
const (
	ReceiverAuto    = "auto"    // pointer if the type already has pointer methods
	ReceiverValue   = "value"
	ReceiverPointer = "pointer"
)

// DeriveConfig configures derive
type DeriveConfig struct {
	Receiver string `mapstructure:"receiver" toml:"receiver" json:"receiver" yaml:"receiver"`
}

// CacheConfig sizes the in-process portrait cache
type CacheConfig struct {
	Portraits int `mapstructure:"portraits" toml:"portraits" json:"portraits" yaml:"portraits"`
}

// LogConfig configures the logger
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// WatchConfig configures generate --watch
type WatchConfig struct {
	DebounceMS    int `mapstructure:"debounce_ms" toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
	MinIntervalMS int `mapstructure:"min_interval_ms" toml:"min_interval_ms" json:"min_interval_ms" yaml:"min_interval_ms"`
}
