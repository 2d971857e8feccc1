package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/config"
	"github.com/dmitrymomot/formkit/pkg/formdata"
)

type uploadConfig struct {
	Dir      string `env:"TEST_UPLOAD_DIR" envDefault:"./uploads"`
	Workers  int    `env:"TEST_UPLOAD_WORKERS" envDefault:"4"`
	Public   bool   `env:"TEST_UPLOAD_PUBLIC" envDefault:"false"`
	Formdata formdata.Config
}

type requiredConfig struct {
	Bucket string `env:"TEST_REQUIRED_BUCKET,required"`
}

type cachedConfig struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
}

type dotenvConfig struct {
	Value string `env:"TEST_DOTENV_VALUE"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_UPLOAD_DIR", "/srv/uploads")
	t.Setenv("TEST_UPLOAD_WORKERS", "8")
	t.Setenv("FORMDATA_MAX_FILE_SIZE", "5MB")
	config.Reset()

	var cfg uploadConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "/srv/uploads", cfg.Dir)
	assert.Equal(t, 8, cfg.Workers)
	assert.False(t, cfg.Public)
	assert.Equal(t, formdata.ByteSize(5_000_000), cfg.Formdata.MaxFileSize)
	assert.Equal(t, formdata.ByteSize(1<<20), cfg.Formdata.MaxValueSize)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_BUCKET")
	config.Reset()

	var cfg requiredConfig
	err := config.Load(&cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("TEST_CACHED_VALUE", "first")
	config.Reset()

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_CACHED_VALUE", "second")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.Reset()
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_InvalidTarget(t *testing.T) {
	var nilCfg *cachedConfig
	assert.ErrorIs(t, config.Load(nilCfg), config.ErrNilPointer)

	var s string
	assert.ErrorIs(t, config.Load(&s), config.ErrInvalidConfigType)
}

func TestMustLoad(t *testing.T) {
	os.Unsetenv("TEST_REQUIRED_BUCKET")
	config.Reset()

	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_DOTENV_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TEST_DOTENV_VALUE") })
	config.Reset()

	require.NoError(t, config.LoadEnv(path))

	var cfg dotenvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from-file", cfg.Value)

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnvFile)
}
