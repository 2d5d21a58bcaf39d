package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: ":8080"
paths:
  target_dir: "/data/images"
database:
  enabled: true
  master:
    host: "db"
    port: "5432"
    user: "u"
    pass: "p"
    name: "n"
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
retry:
  attempts: 5
  delay: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, "/data/images", cfg.Paths.TargetDir)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", cfg.Database.Master.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)

	// Defaults fill whatever the file leaves out.
	assert.Equal(t, "./uploads", cfg.Paths.UploadDir)
	assert.Equal(t, int64(32), cfg.Server.MaxUploadMB)
	assert.Equal(t, "reconciliation-jobs", cfg.Kafka.Topic)
	assert.Equal(t, "image-reconciler", cfg.Kafka.GroupID)
	assert.Empty(t, cfg.Kafka.RequestsTopic)
	assert.Equal(t, "images", cfg.Storage.Mirror.Prefix)
	assert.False(t, cfg.Storage.Mirror.Enabled)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TARGET_DIR", "/override")
	t.Setenv("DB_HOST", "pg.internal")

	cfg, err := Load(writeConfig(t, "paths:\n  target_dir: ./images\n"))
	require.NoError(t, err)

	assert.Equal(t, "/override", cfg.Paths.TargetDir)
	assert.Equal(t, "pg.internal", cfg.Database.Master.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestMustLoadPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
	})
}

func TestShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yml"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.HTTPPort)
	assert.Equal(t, "./images", cfg.Paths.TargetDir)
	assert.False(t, cfg.Database.Enabled)
}
