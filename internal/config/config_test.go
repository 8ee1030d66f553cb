package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBackend(t *testing.T) {
	assert.Equal(t, BackendMongo, parseBackend("mongo"))
	assert.Equal(t, BackendMongo, parseBackend("MongoDB"))
	assert.Equal(t, BackendMongo, parseBackend(" documentdb "))
	assert.Equal(t, BackendMemory, parseBackend("memory"))
	assert.Equal(t, BackendMemory, parseBackend("postgres"))
	assert.Equal(t, BackendMemory, parseBackend(""))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("GALYNX_TEST_BOOL", "yes")
	assert.True(t, GetEnvBool("GALYNX_TEST_BOOL", false))

	t.Setenv("GALYNX_TEST_BOOL", "off")
	assert.False(t, GetEnvBool("GALYNX_TEST_BOOL", true))

	t.Setenv("GALYNX_TEST_BOOL", "definitely")
	assert.True(t, GetEnvBool("GALYNX_TEST_BOOL", true))

	assert.True(t, GetEnvBool("GALYNX_TEST_BOOL_MISSING", true))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("GALYNX_TEST_INT", "42")
	assert.Equal(t, 42, GetEnvInt("GALYNX_TEST_INT", 7))

	t.Setenv("GALYNX_TEST_INT", "not-a-number")
	assert.Equal(t, 7, GetEnvInt("GALYNX_TEST_INT", 7))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 15, cfg.AccessTTLMinutes)
	assert.Equal(t, 30, cfg.RefreshTTLDays)
	assert.Equal(t, "owner@galynx.local", cfg.BootstrapEmail)
	assert.Equal(t, BackendMemory, cfg.PersistenceBackend)
}
