package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "clinicalforge", cfg.Mongo.Database)
	assert.Equal(t, "submissions", cfg.Mongo.Collection)
	assert.Equal(t, 10*time.Second, cfg.Mongo.QueryTimeout)
	assert.Equal(t, int64(1000), cfg.Dashboard.WindowSize)
	assert.Equal(t, "@every 1m", cfg.Dashboard.RefreshSpec)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"port": 9090},
		"mongo": {"database": "clinicalforge_test"}
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "clinicalforge_test", cfg.Mongo.Database)
	// Untouched fields keep their defaults.
	assert.Equal(t, "submissions", cfg.Mongo.Collection)
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("MONGO_URI", "mongodb://db.internal:27017")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "env-secret", cfg.Security.JWTSecret)
}

func TestGetServerAddr(t *testing.T) {
	server := ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", server.GetServerAddr())
}
