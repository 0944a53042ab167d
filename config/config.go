package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingDiscordToken is returned when the bot is started without a Discord token
var ErrMissingDiscordToken = errors.New("discord.token is required (set DISCORD_TOKEN)")

// envPrefix is used for automatic environment overrides, e.g. ANILUMINA_MAL_CACHE_TTL
const envPrefix = "ANILUMINA"

// maxPageSize is the most embeds Discord accepts in one message
const maxPageSize = 10

// Load loads the configuration. The config file is optional; defaults and
// environment variables apply when none is found.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)
	bindEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".anilumina"))
		}

		// Check /etc
		v.AddConfigPath("/etc/anilumina/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// MyAnimeList defaults
	v.SetDefault("mal.base_url", "https://api.myanimelist.net/v2")
	v.SetDefault("mal.timeout", 10*time.Second)
	v.SetDefault("mal.cache_ttl", 10*time.Minute)
	v.SetDefault("mal.max_limit", 15)
	v.SetDefault("mal.requests_per_second", 3.0)
	v.SetDefault("mal.burst", 5)
	v.SetDefault("mal.breaker_failures", 5)
	v.SetDefault("mal.breaker_timeout", 30*time.Second)

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.sweep_interval", time.Minute)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.key_prefix", "anilumina:cache:")

	// Session defaults
	v.SetDefault("session.ttl", 3*time.Minute)
	v.SetDefault("session.owner_only", true)
	v.SetDefault("session.capacity", 1000)
	v.SetDefault("session.sweep_interval", 30*time.Second)

	// Server defaults
	v.SetDefault("server.port", 8080)

	// Display defaults
	v.SetDefault("display.page_size", 5)
	v.SetDefault("display.show_links", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// bindEnv wires the conventional deployment variables alongside ANILUMINA_* overrides
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("discord.token", envPrefix+"_DISCORD_TOKEN", "DISCORD_TOKEN")
	_ = v.BindEnv("discord.dev_guild_id", envPrefix+"_DISCORD_DEV_GUILD_ID", "DEV_GUILD_ID")
	_ = v.BindEnv("mal.client_id", envPrefix+"_MAL_CLIENT_ID", "MAL_CLIENT_ID")
	_ = v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("cache.redis.addr", envPrefix+"_CACHE_REDIS_ADDR", "REDIS_ADDR")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.MAL.BaseURL == "" {
		return fmt.Errorf("mal.base_url is required")
	}

	if cfg.MAL.MaxLimit < 1 || cfg.MAL.MaxLimit > 100 {
		return fmt.Errorf("invalid mal.max_limit: %d (must be between 1 and 100)", cfg.MAL.MaxLimit)
	}

	if cfg.MAL.CacheTTL < 0 {
		return fmt.Errorf("mal.cache_ttl cannot be negative")
	}

	switch cfg.Cache.Backend {
	case "", "memory":
	case "redis":
		if cfg.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required when cache.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid cache.backend: %s (must be 'memory' or 'redis')", cfg.Cache.Backend)
	}

	if cfg.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", cfg.Server.Port)
	}

	if cfg.Display.PageSize < 1 || cfg.Display.PageSize > maxPageSize {
		return fmt.Errorf("invalid display.page_size: %d (must be between 1 and %d)", cfg.Display.PageSize, maxPageSize)
	}

	for name, expr := range cfg.Filter.Presets {
		if strings.TrimSpace(expr) == "" {
			return fmt.Errorf("filter preset '%s' has an empty expression", name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}

// ValidateServe checks the settings needed to run the Discord bot
func (c *Config) ValidateServe() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return ErrMissingDiscordToken
	}
	return nil
}

// Addr returns the health server listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
