package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
telegram:
  token: "file-token"
  poll_timeout: 30
gate:
  likes_threshold: 500
extractor:
  attempt_timeout: 10s
download:
  concurrent_limit: 4
  logs_dir: /var/log/likegate
session:
  ttl: 5m
store:
  database_path: /tmp/likegate.db
server:
  port: 9090
`)
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DEBUG", "")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file-token", config.Telegram.Token)
	assert.Equal(t, 30, config.Telegram.PollTimeout)
	assert.Equal(t, 500, config.Gate.LikesThreshold)
	assert.Equal(t, 10*time.Second, config.Extractor.AttemptTimeout)
	assert.Equal(t, 4, config.Download.ConcurrentLimit)
	assert.Equal(t, "/var/log/likegate", config.Download.LogsDir)
	assert.Equal(t, 5*time.Minute, config.Session.TTL)
	assert.Equal(t, "/tmp/likegate.db", config.Store.DatabasePath)
	assert.Equal(t, 9090, config.Server.Port)

	// untouched keys keep their defaults
	assert.Equal(t, "yt-dlp", config.Extractor.YTDLPBinary)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLoadConfig_LegacyEnvironment(t *testing.T) {
	path := writeConfigFile(t, "store:\n  database_path: /tmp/x.db\n")
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("LIKES_THRESHOLD", "3")
	t.Setenv("DEBUG", "true")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", config.Telegram.Token)
	assert.Equal(t, 3, config.Gate.LikesThreshold)
	assert.True(t, config.Telegram.Debug)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfig_PrefixedEnvironmentWins(t *testing.T) {
	path := writeConfigFile(t, "")
	t.Setenv("BOT_TOKEN", "legacy")
	t.Setenv("LIKEGATE_TELEGRAM_TOKEN", "prefixed")
	t.Setenv("LIKEGATE_DOWNLOAD_CONCURRENT_LIMIT", "7")

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "prefixed", config.Telegram.Token)
	assert.Equal(t, 7, config.Download.ConcurrentLimit)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	path := writeConfigFile(t, "gate:\n  likes_threshold: 1\n")
	t.Setenv("BOT_TOKEN", "")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	path := writeConfigFile(t, "telegram:\n  token: t\ngate:\n  likes_threshold: -1\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "likes threshold")

	path = writeConfigFile(t, "telegram:\n  token: t\ndownload:\n  concurrent_limit: 0\n")
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrent limit")

	path = writeConfigFile(t, "telegram:\n  token: t\nserver:\n  port: 70000\n")
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, home+"/y", expandPath("$HOME/y"))
	assert.Equal(t, "", expandPath(""))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}
