package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port     int      `env:"LOADER_TEST_PORT" envDefault:"5000"`
	Currency string   `env:"LOADER_TEST_CURRENCY" envDefault:"myr"`
	Brokers  []string `env:"LOADER_TEST_BROKERS" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "myr", cfg.Currency)
	assert.Empty(t, cfg.Brokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LOADER_TEST_PORT", "8080")
	t.Setenv("LOADER_TEST_BROKERS", "a:9092,b:9092")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_InvalidType(t *testing.T) {
	t.Setenv("LOADER_TEST_PORT", "five-thousand")

	var cfg sampleConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadDotEnv_DoesNotOverrideExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LOADER_TEST_CURRENCY=usd\nLOADER_TEST_PORT=7000\n"), 0o600))

	t.Setenv("LOADER_TEST_PORT", "9000")
	// t.Setenv restores the variable after the test; register the dotenv key too.
	t.Setenv("LOADER_TEST_CURRENCY", "")
	require.NoError(t, os.Unsetenv("LOADER_TEST_CURRENCY"))

	require.NoError(t, LoadDotEnv(path))

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "usd", cfg.Currency)
}
