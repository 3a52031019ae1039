// Package config provides environment-based configuration for the privileges
// library.
//
// Configuration is loaded from environment variables using Viper, with sensible
// defaults for development. This package handles database connection settings,
// logging levels, the default grant decision, and the optional Redis
// projection.
//
// # Environment Variables
//
//   - DB_TYPE: Database type (sqlite, postgres, mysql). Default: sqlite
//   - DSN: Database connection string. Default: privileges.db
//   - SKIP_AUTO_MIGRATE: Skip automatic database migrations. Default: false
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - DEFAULT_GRANT: Decision substituted for unresolved grants. Default: false
//   - REDIS_ADDR: Redis address for the projection, empty disables it.
//   - REDIS_PREFIX: Key prefix for the Redis projection. Default: privileges
//
// # Example Usage
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("using %s database at %s\n", cfg.DBType, cfg.DSN)
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DBType          string `mapstructure:"DB_TYPE"` // sqlite, postgres, mysql
	DSN             string `mapstructure:"DSN"`
	SkipAutoMigrate bool   `mapstructure:"SKIP_AUTO_MIGRATE"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	DefaultGrant    bool   `mapstructure:"DEFAULT_GRANT"`
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPrefix     string `mapstructure:"REDIS_PREFIX"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "privileges.db") // Default to sqlite if not provided
	viper.SetDefault("SKIP_AUTO_MIGRATE", false)
	viper.SetDefault("DEFAULT_GRANT", false)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PREFIX", "privileges")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
