package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	StaticPath      string        `mapstructure:"static_path"`
	LogLevel        string        `mapstructure:"log_level"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	Secret          string        `mapstructure:"secret"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	PINAttempts     int           `mapstructure:"pin_attempts"`
	PresenterGrace  time.Duration `mapstructure:"presenter_grace"`
	JoinRate        JoinRate      `mapstructure:"join_rate"`
	Redirects       Redirects     `mapstructure:"redirects"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// JoinRate caps attendee PIN lookups per user within a sliding window.
type JoinRate struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

// Redirects are the pages browsers are sent to when a room can't be entered.
type Redirects struct {
	NotFound string `mapstructure:"not_found"`
	Banned   string `mapstructure:"banned"`
	Closed   string `mapstructure:"closed"`
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default). CLICKER_*
// environment variables override file values, e.g. CLICKER_JOIN_RATE_LIMIT.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("CLICKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("secret", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "12h")
	v.SetDefault("pin_attempts", 32)
	v.SetDefault("presenter_grace", "30s")
	v.SetDefault("join_rate.limit", 10)
	v.SetDefault("join_rate.interval", "1m")
	v.SetDefault("redirects.not_found", "/?error=not_found")
	v.SetDefault("redirects.banned", "/?error=banned")
	v.SetDefault("redirects.closed", "/?error=closed")
	v.SetDefault("shutdown_timeout", "5s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Secret == "" {
		return fmt.Errorf("config: secret is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: jwt_secret is required")
	}
	if c.JoinRate.Limit <= 0 || c.JoinRate.Interval <= 0 {
		return fmt.Errorf("config: join_rate must be positive")
	}
	return nil
}
