// Package config loads callcache settings from an optional YAML file and
// CALLCACHE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment override, e.g.
// CALLCACHE_STORE_REDIS_ADDR.
const EnvPrefix = "CALLCACHE"

// Config is the complete callcache configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store" validate:"required"`
	Page  PageConfig  `mapstructure:"page"  validate:"required"`
	Log   LogConfig   `mapstructure:"log"`
}

// StoreConfig selects and configures the key-value backend.
type StoreConfig struct {
	Backend string      `mapstructure:"backend" validate:"required,oneof=redis bolt memory"`
	Redis   RedisConfig `mapstructure:"redis"`
	Bolt    BoltConfig  `mapstructure:"bolt"`
	Memory  MemConfig   `mapstructure:"memory"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"         validate:"required,hostname_port"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"           validate:"gte=0,lte=15"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" validate:"gte=0"`
}

type BoltConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type MemConfig struct {
	// Capacity bounds the number of plain values; zero keeps every value.
	Capacity int `mapstructure:"capacity" validate:"gte=0"`
}

// PageConfig configures the page cache.
type PageConfig struct {
	TTL       time.Duration `mapstructure:"ttl"        validate:"gt=0"`
	Fetcher   string        `mapstructure:"fetcher"    validate:"required,oneof=http colly"`
	Codec     string        `mapstructure:"codec"      validate:"required,oneof=none gzip zstd"`
	Timeout   time.Duration `mapstructure:"timeout"    validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// ZapLevel returns the configured level as a zapcore.Level.
func (l LogConfig) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// Load reads the configuration. With an empty path it looks for
// callcache.yaml in ./configs and the working directory, and a missing file
// is not an error. Environment variables override file values.
func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("callcache")
		vip.AddConfigPath("./configs")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	setDefaults(vip)

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	vip := viper.New()
	setDefaults(vip)
	var cfg Config
	// Defaults are literals that always decode.
	_ = vip.Unmarshal(&cfg)
	return &cfg
}

// Every key needs a default so AutomaticEnv can override it on Unmarshal.
func setDefaults(vip *viper.Viper) {
	vip.SetDefault("store.backend", "redis")
	vip.SetDefault("store.redis.addr", "localhost:6379")
	vip.SetDefault("store.redis.password", "")
	vip.SetDefault("store.redis.db", 0)
	vip.SetDefault("store.redis.dial_timeout", "5s")
	vip.SetDefault("store.bolt.path", "callcache.bbolt")
	vip.SetDefault("store.memory.capacity", 0)

	vip.SetDefault("page.ttl", "10s")
	vip.SetDefault("page.fetcher", "http")
	vip.SetDefault("page.codec", "none")
	vip.SetDefault("page.timeout", "20s")
	vip.SetDefault("page.user_agent", "")

	vip.SetDefault("log.level", "info")
}
