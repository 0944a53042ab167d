package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Discord DiscordConfig `mapstructure:"discord"`
	MAL     MALConfig     `mapstructure:"mal"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Session SessionConfig `mapstructure:"session"`
	Server  ServerConfig  `mapstructure:"server"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Display DisplayConfig `mapstructure:"display"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DiscordConfig holds the bot credential and command registration scope
type DiscordConfig struct {
	Token string `mapstructure:"token"`
	// DevGuildID registers commands to one guild for instant updates during development.
	DevGuildID string `mapstructure:"dev_guild_id"`
}

// MALConfig holds MyAnimeList API connection details
type MALConfig struct {
	ClientID          string        `mapstructure:"client_id"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	MaxLimit          int           `mapstructure:"max_limit"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
}

// CacheConfig selects the response cache backend
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Redis         RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds connection details for the redis cache backend
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SessionConfig contains pagination session settings
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	OwnerOnly     bool          `mapstructure:"owner_only"`
	Capacity      int           `mapstructure:"capacity"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// ServerConfig holds the health server settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// FilterConfig contains named filter presets
type FilterConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// DisplayConfig contains result rendering settings
type DisplayConfig struct {
	PageSize  int  `mapstructure:"page_size"`
	ShowLinks bool `mapstructure:"show_links"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
