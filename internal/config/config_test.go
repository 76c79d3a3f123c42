package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"server": {"port": 9090, "environment": "production", "read_timeout": "5s"},
		"security": {"jwt_secret": "from-file", "token_ttl": "2h"},
		"workflow": {"strict_transitions": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 2*time.Hour, cfg.Security.TokenTTL.Duration)
	assert.True(t, cfg.Workflow.StrictTransitions)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.NotEmpty(t, cfg.Security.JWTSecret)
}

func TestValidateRequiresSecretInProduction(t *testing.T) {
	cfg := Default()
	cfg.Server.Environment = "production"

	assert.Error(t, cfg.Validate())

	cfg.Security.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadCron(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.DeadlineReminderCron = "every day"

	assert.Error(t, cfg.Validate())
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{User: "growf", Password: "pw", Host: "localhost", Port: 5432, DBName: "growf", SSLMode: "disable"}
	assert.Equal(t, "postgres://growf:pw@localhost:5432/growf?sslmode=disable", db.GetDatabaseURL())
}

func TestNewLogger(t *testing.T) {
	logger, err := LoggingConfig{Level: "debug", Format: "json"}.NewLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	_, err = LoggingConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}
