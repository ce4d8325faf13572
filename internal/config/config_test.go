// internal/config/config_test.go
package config

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-service/pkg/db"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, db.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "membership.db", cfg.Database.Path)
	assert.True(t, cfg.Database.MigrateOnStart)

	iso, err := cfg.Database.IsolationLevel()
	require.NoError(t, err)
	assert.Equal(t, sql.LevelDefault, iso)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MEMBERSHIP_SERVER_PORT", "9090")
	t.Setenv("MEMBERSHIP_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("MEMBERSHIP_LOG_LEVEL", "debug")
	t.Setenv("MEMBERSHIP_DATABASE_DRIVER", "postgres")
	t.Setenv("MEMBERSHIP_DATABASE_HOST", "db.internal")
	t.Setenv("MEMBERSHIP_DATABASE_MAX_OPEN_CONNS", "25")
	t.Setenv("MEMBERSHIP_DATABASE_ISOLATION", "serializable")
	t.Setenv("MEMBERSHIP_DATABASE_MIGRATE_ON_START", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Database.MigrateOnStart)

	iso, err := cfg.Database.IsolationLevel()
	require.NoError(t, err)
	assert.Equal(t, sql.LevelSerializable, iso)

	dbCfg := cfg.Database.DBConfig()
	assert.Equal(t, "db.internal", dbCfg.Host)
	assert.Equal(t, 5432, dbCfg.Port)
	assert.Equal(t, 25, dbCfg.MaxOpenConns)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"unknown driver":    {"MEMBERSHIP_DATABASE_DRIVER", "oracle"},
		"non numeric port":  {"MEMBERSHIP_SERVER_PORT", "http"},
		"unknown log level": {"MEMBERSHIP_LOG_LEVEL", "loud"},
		"unknown isolation": {"MEMBERSHIP_DATABASE_ISOLATION", "chaos"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.max_open_conns", envKey("MEMBERSHIP_DATABASE_MAX_OPEN_CONNS"))
	assert.Equal(t, "server.port", envKey("MEMBERSHIP_SERVER_PORT"))
}
