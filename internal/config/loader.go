package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/tokenforge/pkg/errors"
)

// Loader loads configuration from file and environment and supports
// change notification for the loaded file.
type Loader struct {
	v *viper.Viper
}

// NewLoader builds a Loader with defaults, file discovery, and the
// TOKENFORGE_ environment prefix applied.
func NewLoader() *Loader {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.pprof_enabled", false)
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.secret_path", "tokenforge/signing")
	v.SetDefault("vault.secret_key", "secret")
	v.SetDefault("token.issuer", "tokenforge")
	v.SetDefault("token.audience", "tokenforge-api")
	v.SetDefault("token.access_token_ttl", 900)
	v.SetDefault("token.refresh_token_ttl", 2592000)
	v.SetDefault("token.default_scopes", []string{"read"})
	v.SetDefault("token.default_roles", []string{"user"})
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "tokenforge.revocations")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/tokenforge/")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TOKENFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile points the loader at an explicit config file instead of the
// discovery paths.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load reads the configuration. A missing config file is not an error; the
// defaults and environment overrides still apply.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ErrConfig("failed to read config file").WithCause(err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrConfig("failed to unmarshal config").WithCause(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Watch registers onChange for config file modifications and starts
// watching. Typical use is triggering an explicit signing-key refresh when
// the secret changes on disk.
func (l *Loader) Watch(onChange func(fsnotify.Event)) {
	l.v.OnConfigChange(onChange)
	l.v.WatchConfig()
}

// LoadConfig is a convenience wrapper around NewLoader().Load().
func LoadConfig() (*Config, error) {
	return NewLoader().Load()
}
