package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

// unsetEnv clears a variable for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfig_FileEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.env", "ACCESS_SECRET=file-secret\nDB_DRIVER=memory\nQUEUE_WORKERS=2\n")
	t.Setenv("QUEUE_WORKERS", "8")
	unsetEnv(t, "ACCESS_SECRET")
	unsetEnv(t, "DB_DRIVER")
	unsetEnv(t, "BATCH_SIZE")
	unsetEnv(t, "SUMMARY_CACHE_TTL")
	unsetEnv(t, "QUEUE_RETRY_BACKOFF")
	unsetEnv(t, "AWARD_MAX_POINTS")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "file-secret", cfg.AccessSecret)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, 8, cfg.QueueWorkers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.SummaryCacheTTL)
	assert.Equal(t, 2*time.Second, cfg.QueueRetryBackoff)
	assert.Equal(t, 1000, cfg.AwardMaxPoints)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "ACCESS_SECRET=dotenv-secret\nDB_DRIVER=mongo\n")
	unsetEnv(t, "ACCESS_SECRET")
	unsetEnv(t, "DB_DRIVER")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-secret", cfg.AccessSecret)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
}

func TestLoadConfig_RejectsMissingSecret(t *testing.T) {
	unsetEnv(t, "ACCESS_SECRET")
	_, err := LoadConfig(t.TempDir())
	assert.ErrorContains(t, err, "ACCESS_SECRET")
}

func TestValidate(t *testing.T) {
	valid := Config{DBDriver: DriverPostgres, AccessSecret: "s", QueueWorkers: 1, QueueSize: 1, BatchSize: 1, AwardMaxPoints: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"empty secret", func(c *Config) { c.AccessSecret = "" }},
		{"no workers", func(c *Config) { c.QueueWorkers = 0 }},
		{"no queue", func(c *Config) { c.QueueSize = -1 }},
		{"no batch", func(c *Config) { c.BatchSize = 0 }},
		{"no award ceiling", func(c *Config) { c.AwardMaxPoints = 0 }},
		{"negative award ceiling", func(c *Config) { c.AwardMaxPoints = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: " https://jhub.africa, ,http://localhost:3000"}
	assert.Equal(t, []string{"https://jhub.africa", "http://localhost:3000"}, cfg.Origins())
	assert.Nil(t, Config{}.Origins())
}
