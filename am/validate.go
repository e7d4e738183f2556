package am

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/teranos/portrait/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !strings.HasSuffix(c.Fill.FileSuffix, ".go") {
		return errors.Newf("fill.file_suffix must end in .go, got %q", c.Fill.FileSuffix)
	}
	if strings.HasSuffix(c.Fill.FileSuffix, "_test.go") {
		return errors.Newf("fill.file_suffix cannot produce test files, got %q", c.Fill.FileSuffix)
	}
	// companions written by make end in _portrait.go
	if strings.HasSuffix(c.Fill.FileSuffix, "_portrait.go") {
		return errors.Newf("fill.file_suffix collides with make companions, got %q", c.Fill.FileSuffix)
	}

	switch c.Derive.Receiver {
	case ReceiverAuto, ReceiverValue, ReceiverPointer:
	default:
		return errors.Newf("derive.receiver must be one of auto, value, pointer, got %q", c.Derive.Receiver)
	}

	// 0 disables the cache; negative is invalid
	if c.Cache.Portraits < 0 {
		return errors.Newf("cache.portraits must be >= 0, got %d", c.Cache.Portraits)
	}

	if c.Watch.DebounceMS < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}
	if c.Watch.MinIntervalMS < 0 {
		return errors.Newf("watch.min_interval_ms must be >= 0, got %d", c.Watch.MinIntervalMS)
	}

	return nil
}

// UnknownKeys decodes a config file strictly and returns keys that do not
// correspond to any setting, sorted.
func UnknownKeys(configPath string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(configPath, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", configPath)
	}

	var keys []string
	for _, k := range md.Undecoded() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys, nil
}
