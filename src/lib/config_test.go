package lib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret-value")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 20, cfg.API.DefaultPageSize)
	assert.Equal(t, "talentnest.notify", cfg.NATS.SubjectPrefix)
	assert.False(t, cfg.NATS.Enabled)
}

func TestLoadConfigLegacyEnvNames(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "legacy-secret-value")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/legacy.db")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "legacy-secret-value", cfg.Auth.JWTSecret)
	assert.Equal(t, "/tmp/legacy.db", cfg.Database.SQLitePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "4000"
auth:
  jwt_secret: from-file-secret
  token_ttl: 2h
nats:
  enabled: true
  embedded: true
`), 0o600))

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SERVER_PORT", "5000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port, "env wins over file")
	assert.Equal(t, "from-file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.NATS.Enabled)
	assert.True(t, cfg.NATS.Embedded)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"unknown driver", map[string]string{"AUTH_JWT_SECRET": "test-secret-value", "DATABASE_DRIVER": "postgres"}},
		{"page size above max", map[string]string{"AUTH_JWT_SECRET": "test-secret-value", "API_DEFAULT_PAGE_SIZE": "500"}},
		{"bad log level", map[string]string{"AUTH_JWT_SECRET": "test-secret-value", "LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
