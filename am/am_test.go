package am

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[fill]
file_suffix = "_impl.go"
strict_constraints = true

[derive]
receiver = "pointer"
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "_impl.go", cfg.Fill.FileSuffix)
	assert.True(t, cfg.Fill.StrictConstraints)
	assert.Equal(t, ReceiverPointer, cfg.Derive.Receiver)
	assert.Equal(t, DefaultCacheSize, cfg.Cache.Portraits, "unset keys keep defaults")
}

func TestMergeConfigFiles_LaterWins(t *testing.T) {
	dir := t.TempDir()
	user := filepath.Join(dir, "user.toml")
	project := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(user, []byte("[cache]\nportraits = 8\n[derive]\nreceiver = \"value\"\n"), 0644))
	require.NoError(t, os.WriteFile(project, []byte("[cache]\nportraits = 16\n"), 0644))

	v := viper.New()
	SetDefaults(v)
	mergeConfigFiles(v, []string{user, filepath.Join(dir, "missing.toml"), project})

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Cache.Portraits)
	assert.Equal(t, ReceiverValue, cfg.Derive.Receiver)
}

func TestFindProjectConfig_WalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), nil, 0644))

	assert.Equal(t, filepath.Join(root, ConfigFileName), FindProjectConfig(nested))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "suffix without .go", mutate: func(c *Config) { c.Fill.FileSuffix = "_gen" }, wantErr: "must end in .go"},
		{name: "test suffix", mutate: func(c *Config) { c.Fill.FileSuffix = "_gen_test.go" }, wantErr: "cannot produce test files"},
		{name: "companion suffix", mutate: func(c *Config) { c.Fill.FileSuffix = "_portrait.go" }, wantErr: "collides with make companions"},
		{name: "bad receiver", mutate: func(c *Config) { c.Derive.Receiver = "ref" }, wantErr: "derive.receiver"},
		{name: "zero cache is valid", mutate: func(c *Config) { c.Cache.Portraits = 0 }},
		{name: "negative cache", mutate: func(c *Config) { c.Cache.Portraits = -1 }, wantErr: "cache.portraits"},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.DebounceMS = -5 }, wantErr: "watch.debounce_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[fill]
file_sufix = "_x.go"

[cache]
portraits = 4

[server]
port = 1
`), 0644))

	keys, err := UnknownKeys(path)
	require.NoError(t, err)
	assert.Contains(t, keys, "fill.file_sufix")
	assert.Contains(t, keys, "server.port")
	assert.NotContains(t, keys, "cache.portraits")
}

func TestMarshalFormats(t *testing.T) {
	cfg := Default()

	out, err := Marshal(cfg, FormatTOML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "file_suffix = ")
	assert.Contains(t, string(out), "_portrait_gen.go")

	out, err = Marshal(cfg, FormatJSON)
	require.NoError(t, err)
	var decoded Config
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, *cfg, decoded)

	out, err = Marshal(cfg, FormatYAML)
	require.NoError(t, err)
	var fromYAML Config
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	assert.Equal(t, *cfg, fromYAML)

	_, err = Marshal(cfg, "ini")
	assert.Error(t, err)
}

func TestWriteDefault_BackupsAndForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", ConfigFileName)

	require.NoError(t, WriteDefault(path, false))
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)

	err = WriteDefault(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, os.WriteFile(path, []byte("# edited\n"), 0644))
	require.NoError(t, WriteDefault(path, true))

	backup, err := os.ReadFile(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, "# edited\n", string(backup))
}
