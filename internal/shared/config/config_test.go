package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKoanf(t *testing.T, values map[string]any) *koanf.Koanf {
	t.Helper()
	k := koanf.New(".")
	for key, value := range values {
		require.NoError(t, k.Set(key, value))
	}
	return k
}

func TestFromKoanf_Defaults(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{"token": "secret"}))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.SettleDelay)
	assert.Equal(t, time.Second, cfg.RenderInterval)
	assert.Equal(t, time.Hour, cfg.TimerRetention)
	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
	assert.Empty(t, cfg.AdminUsers)
	assert.Empty(t, cfg.CategoryID, "ids are optional at load")
}

func TestFromKoanf_Values(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{
		"token":                 "secret",
		"guild":                 "1",
		"category":              "2",
		"lfg_channel":           "3",
		"channel":               "4",
		"timer_channel":         "5",
		"timer_channel_display": "6",
		"admin_users":           "10, 11,abc,10",
		"settle_delay":          "250ms",
		"app_env":               "Development",
	}))
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.GuildID)
	assert.Equal(t, "2", cfg.CategoryID)
	assert.Equal(t, "3", cfg.LFGChannelID)
	assert.Equal(t, "4", cfg.StagingVoiceID)
	assert.Equal(t, "5", cfg.TimerChannelID)
	assert.Equal(t, "6", cfg.TimerDisplayChannelID)
	assert.Equal(t, []string{"10", "11"}, cfg.AdminUsers)
	assert.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, AppEnvDevelopment, cfg.AppEnv)
}

func TestFromKoanf_AdminUsersList(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{
		"token":       "secret",
		"admin_users": []interface{}{"10", 11, "x"},
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"10", "11"}, cfg.AdminUsers)
}

func TestFromKoanf_UnknownAppEnvFallsBack(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{"token": "secret", "app_env": "staging"}))
	require.NoError(t, err)

	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
}

func TestFromKoanf_MissingToken(t *testing.T) {
	_, err := fromKoanf(newKoanf(t, nil))

	assert.ErrorIs(t, err, errors.ErrMissingBotToken)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"token: from-file\ncategory: \"22\"\nadmin_users:\n  - 7\n  - 8\nrender_interval: 2s\n",
	), 0o644))
	t.Setenv("TOKEN", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Token, "environment wins over the file")
	assert.Equal(t, "22", cfg.CategoryID)
	assert.Equal(t, []string{"7", "8"}, cfg.AdminUsers)
	assert.Equal(t, 2*time.Second, cfg.RenderInterval)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SQUADBOT_TEST_MARKER=1\nLFG_CHANNEL=33\n"), 0o644))
	t.Setenv("TOKEN", "secret")
	t.Cleanup(func() {
		os.Unsetenv("SQUADBOT_TEST_MARKER")
		os.Unsetenv("LFG_CHANNEL")
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "33", cfg.LFGChannelID)
}

func TestParseIDList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"123", []string{"123"}},
		{" 1 ,2,, 3 ", []string{"1", "2", "3"}},
		{"1,abc,-2,1", []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIDList(tt.in))
		})
	}
}

func TestResolveID(t *testing.T) {
	id, err := ResolveID("CATEGORY", " 123 ")
	require.NoError(t, err)
	assert.Equal(t, "123", id)

	_, err = ResolveID("CATEGORY", "")
	assert.ErrorIs(t, err, errors.ErrMisconfigured)
	assert.Contains(t, err.Error(), "CATEGORY is not set")

	_, err = ResolveID("LFG_CHANNEL", "general")
	assert.ErrorIs(t, err, errors.ErrMisconfigured)
	assert.Contains(t, err.Error(), "LFG_CHANNEL is not a valid id")
}
