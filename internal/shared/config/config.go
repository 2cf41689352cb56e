package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/squad-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

type Config struct {
	Token   string `koanf:"token"`
	GuildID string `koanf:"guild"`

	// Voice channel requests
	CategoryID     string `koanf:"category"`
	LFGChannelID   string `koanf:"lfg_channel"`
	StagingVoiceID string `koanf:"channel"`

	// Countdown timers
	TimerChannelID        string `koanf:"timer_channel"`
	TimerDisplayChannelID string `koanf:"timer_channel_display"`

	AdminUsers []string `koanf:"-"`

	HTTPPort string `koanf:"http_port"`
	LogFile  string `koanf:"log_file"`
	LogLevel string `koanf:"log_level"`

	SettleDelay    time.Duration `koanf:"settle_delay"`
	RenderInterval time.Duration `koanf:"render_interval"`
	TimerRetention time.Duration `koanf:"timer_retention"`

	AppEnv AppEnv `koanf:"app_env"`
}

// Load reads an optional .env file, an optional config file and the environment,
// in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, oops.With("context", "loading .env file").Wrap(err)
	}

	k := koanf.New(".")

	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	defaults := map[string]any{
		"http_port":       "8080",
		"log_level":       "info",
		"settle_delay":    "1s",
		"render_interval": "1s",
		"timer_retention": "1h",
		"app_env":         "production",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	switch v := k.Get("admin_users").(type) {
	case string:
		cfg.AdminUsers = ParseIDList(v)
	case []interface{}:
		cfg.AdminUsers = lo.FilterMap(v, func(item interface{}, _ int) (string, bool) {
			id := strings.TrimSpace(fmt.Sprint(item))
			return id, isSnowflake(id)
		})
	}

	if env, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = env
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if cfg.Token == "" {
		return nil, errors.ErrMissingBotToken
	}

	return &cfg, nil
}

// ParseIDList parses a comma-separated list of platform ids, dropping anything
// that is not numeric.
func ParseIDList(s string) []string {
	parts := strings.Split(s, ",")
	return lo.Uniq(lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, isSnowflake(part)
	}))
}

// ResolveID validates a configured id. An empty value or a non-numeric one
// is reported as a misconfiguration naming the key.
func ResolveID(key, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", oops.With("key", key).Wrapf(errors.ErrMisconfigured, "%s is not set", key)
	}
	if !isSnowflake(value) {
		return "", oops.With("key", key, "value", value).Wrapf(errors.ErrMisconfigured, "%s is not a valid id", key)
	}
	return value, nil
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	return lo.EveryBy([]rune(s), func(r rune) bool {
		return r >= '0' && r <= '9'
	})
}
