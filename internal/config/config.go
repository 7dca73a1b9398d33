package config

import (
	"time"

	"github.com/turtacn/tokenforge/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Vault  VaultConfig  `mapstructure:"vault"`
	Token  TokenConfig  `mapstructure:"token"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	PprofEnabled bool   `mapstructure:"pprof_enabled"`
}

type RedisConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
	PoolSize     int      `mapstructure:"pool_size"`
	MinIdleConns int      `mapstructure:"min_idle_conns"`
	DialTimeout  int      `mapstructure:"dial_timeout"`  // in seconds
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
}

// VaultConfig configures the persisted signing-secret source. When Address
// is empty the source is skipped and resolution falls through to the static
// config secret.
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	SecretPath string `mapstructure:"secret_path"`
	SecretKey  string `mapstructure:"secret_key"`
}

// TokenConfig configures token issuance. SigningSecret is the static-config
// source of key material; it has no built-in default so that an unconfigured
// deployment falls back to an ephemeral random key instead of a predictable
// one.
type TokenConfig struct {
	Issuer          string `mapstructure:"issuer"`
	Audience        string `mapstructure:"audience"`
	SigningSecret   string `mapstructure:"signing_secret"`
	AccessTokenTTL  int    `mapstructure:"access_token_ttl"`  // in seconds
	RefreshTokenTTL int    `mapstructure:"refresh_token_ttl"` // in seconds

	// DefaultScopes and DefaultRoles seed snapshots from the static
	// identity directory when no external directory is wired
	DefaultScopes []string `mapstructure:"default_scopes"`
	DefaultRoles  []string `mapstructure:"default_roles"`
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTL) * time.Second
}

// RefreshTTL returns the configured refresh token lifetime.
func (c *TokenConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTL) * time.Second
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Token.AccessTokenTTL <= 0 {
		return errors.ErrConfig("token.access_token_ttl must be positive")
	}
	if c.Token.RefreshTokenTTL <= 0 {
		return errors.ErrConfig("token.refresh_token_ttl must be positive")
	}
	if c.Token.RefreshTokenTTL < c.Token.AccessTokenTTL {
		return errors.ErrConfig("token.refresh_token_ttl must not be shorter than token.access_token_ttl")
	}
	if len(c.Redis.Addresses) == 0 {
		return errors.ErrConfig("redis.addresses must not be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.ErrConfig("kafka.brokers must not be empty when kafka is enabled")
	}
	return nil
}
