package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Address string `koanf:"address"`
			Enabled bool   `koanf:"enabled"`
		} `koanf:"http"`
	} `koanf:"server"`
	Storage struct {
		MaxKeyLength int           `koanf:"max_key_length"`
		Default      string        `koanf:"default_ttl"`
		Sweep        time.Duration `koanf:"sweep_interval"`
	} `koanf:"storage"`
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memcell.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoader_File(t *testing.T) {
	path := writeFile(t, `
server:
  http:
    address: 127.0.0.1:9000
    enabled: true
storage:
  max_key_length: 128
  sweep_interval: 2s
`)

	var cfg testConfig
	require.NoError(t, NewLoader(WithConfigFile(path)).Load(&cfg))

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTP.Address)
	assert.True(t, cfg.Server.HTTP.Enabled)
	assert.Equal(t, 128, cfg.Storage.MaxKeyLength)
	assert.Equal(t, 2*time.Second, cfg.Storage.Sweep)
}

func TestLoader_FileMissing(t *testing.T) {
	var cfg testConfig
	err := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))).Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestLoader_FileMalformed(t *testing.T) {
	path := writeFile(t, "server: [unclosed")

	var cfg testConfig
	assert.Error(t, NewLoader(WithConfigFile(path)).Load(&cfg))
}

func TestLoader_EnvMatchesUnderscoredKeys(t *testing.T) {
	t.Setenv("MEMCELL_STORAGE_MAX_KEY_LENGTH", "64")
	t.Setenv("MEMCELL_STORAGE_SWEEP_INTERVAL", "1500ms")

	var cfg testConfig
	require.NoError(t, NewLoader().Load(&cfg))

	assert.Equal(t, 64, cfg.Storage.MaxKeyLength)
	assert.Equal(t, 1500*time.Millisecond, cfg.Storage.Sweep)
}

func TestLoader_EnvCustomPrefix(t *testing.T) {
	t.Setenv("CELL_SERVER_HTTP_ADDRESS", "10.0.0.1:80")
	t.Setenv("MEMCELL_SERVER_HTTP_ADDRESS", "ignored:80")

	var cfg testConfig
	require.NoError(t, NewLoader(WithEnvPrefix("CELL_")).Load(&cfg))

	assert.Equal(t, "10.0.0.1:80", cfg.Server.HTTP.Address)
}

func TestLoader_KeepsDefaults(t *testing.T) {
	var cfg testConfig
	cfg.Storage.MaxKeyLength = 250
	cfg.Server.HTTP.Address = "127.0.0.1:11280"
	t.Setenv("MEMCELL_SERVER_HTTP_ENABLED", "true")

	require.NoError(t, NewLoader().Load(&cfg))

	assert.Equal(t, 250, cfg.Storage.MaxKeyLength)
	assert.Equal(t, "127.0.0.1:11280", cfg.Server.HTTP.Address)
	assert.True(t, cfg.Server.HTTP.Enabled)
}

func TestLoader_Precedence(t *testing.T) {
	path := writeFile(t, `
server:
  http:
    address: from-file:1
storage:
  max_key_length: 10
  default_ttl: file
`)
	t.Setenv("MEMCELL_SERVER_HTTP_ADDRESS", "from-env:2")
	t.Setenv("MEMCELL_STORAGE_MAX_KEY_LENGTH", "20")

	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"server.http.address": "from-flag:3"}),
	)

	var cfg testConfig
	require.NoError(t, l.Load(&cfg))

	assert.Equal(t, "from-flag:3", cfg.Server.HTTP.Address)
	assert.Equal(t, 20, cfg.Storage.MaxKeyLength)
	assert.Equal(t, "file", cfg.Storage.Default)

	assert.Equal(t, map[string]string{
		"server.http.address":    SourceOverride,
		"storage.max_key_length": SourceEnv,
		"storage.default_ttl":    SourceFile,
	}, l.Origins())
	assert.Equal(t, []string{
		"server.http.address",
		"storage.default_ttl",
		"storage.max_key_length",
	}, l.OriginKeys())
}

func TestLoader_ReloadStartsFresh(t *testing.T) {
	path := writeFile(t, "storage:\n  max_key_length: 99\n")
	l := NewLoader(WithConfigFile(path))

	var first testConfig
	require.NoError(t, l.Load(&first))
	assert.Equal(t, 99, first.Storage.MaxKeyLength)

	require.NoError(t, os.WriteFile(path, []byte("server:\n  http:\n    enabled: true\n"), 0o600))

	var second testConfig
	second.Storage.MaxKeyLength = 250
	require.NoError(t, l.Load(&second))

	assert.Equal(t, 250, second.Storage.MaxKeyLength, "value removed from the file must not linger")
	assert.True(t, second.Server.HTTP.Enabled)
	assert.NotContains(t, l.Origins(), "storage.max_key_length")
}

func TestEnvKeys(t *testing.T) {
	keys := envKeys(&testConfig{})

	assert.Equal(t, "server.http.address", keys["server_http_address"])
	assert.Equal(t, "storage.max_key_length", keys["storage_max_key_length"])
	assert.Equal(t, "storage.sweep_interval", keys["storage_sweep_interval"])
	assert.NotContains(t, keys, "server", "struct sections are not leaf keys")
}
