// Package config loads application configuration from config.yaml, a
// .env file, and STOCKER_-prefixed environment variables, and wires
// the global zap logger.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Edgar   EdgarConfig   `yaml:"edgar" mapstructure:"edgar"`
	FMP     FMPConfig     `yaml:"fmp" mapstructure:"fmp"`
	Finnhub FinnhubConfig `yaml:"finnhub" mapstructure:"finnhub"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// EdgarConfig configures SEC EDGAR access. The SEC requires a contact
// address in the User-Agent.
type EdgarConfig struct {
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// FMPConfig holds FinancialModelingPrep API settings.
type FMPConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// FinnhubConfig holds Finnhub API settings.
type FinnhubConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// FetchConfig bounds the fetch pipeline.
type FetchConfig struct {
	Quarters       int `yaml:"quarters" mapstructure:"quarters"`
	TimeoutSecs    int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int `yaml:"max_retries" mapstructure:"max_retries"`
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// CatalogConfig points at an optional metric catalog override file.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// Optional .env preload so STOCKER_ variables can live beside the
	// binary in development.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STOCKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "stocker.db")
	v.SetDefault("edgar.user_agent", "stocker-cli admin@stocker.app")
	// Empty defaults so env-only keys survive Unmarshal.
	v.SetDefault("fmp.key", "")
	v.SetDefault("finnhub.key", "")
	v.SetDefault("catalog.path", "")
	v.SetDefault("fetch.quarters", 12)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.max_concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
