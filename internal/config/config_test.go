package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "@every 300s", cfg.PollSchedule)
	assert.Equal(t, 60*time.Second, cfg.RetryInterval)
	assert.Equal(t, StoreFile, cfg.SeenStore)
	assert.Equal(t, "seen_listings.json", cfg.SeenFile)
	assert.Equal(t, "", cfg.HTTPPort)
	assert.False(t, cfg.TelegramEnabled())
	assert.Nil(t, cfg.TelegramThreadID)
}

func TestLoadRequiresNotificationChannel(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	_, err := Load()
	assert.ErrorContains(t, err, "missing DISCORD_WEBHOOK_URL")
}

func TestLoadTelegramOnly(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	t.Setenv("TELEGRAM_CHAT_THREAD_ID", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TelegramEnabled())
	require.NotNil(t, cfg.TelegramThreadID)
	assert.Equal(t, 7, *cfg.TelegramThreadID)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"thread id":      {"TELEGRAM_CHAT_THREAD_ID", "seven"},
		"retry interval": {"RETRY_INTERVAL", "soon"},
		"negative retry": {"RETRY_INTERVAL", "-5s"},
		"store":          {"SEEN_STORE", "sqlite"},
		"redis db":       {"REDIS_DB", "x"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "roomspot", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/roomspot?sslmode=disable", cfg.PostgresDSN())
}
