// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Cancellation policies.
const (
	CancellationManual = "manual"
	CancellationRandom = "random"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerAddress      string        `mapstructure:"SERVER_ADDRESS"`
	Environment        string        `mapstructure:"GO_ENV"`
	StageDelay         time.Duration `mapstructure:"STAGE_DELAY"`
	StageJitter        time.Duration `mapstructure:"STAGE_JITTER"`
	OpeningBalance     string        `mapstructure:"OPENING_BALANCE"`
	CancellationPolicy string        `mapstructure:"CANCELLATION_POLICY"`
	CancellationRate   float64       `mapstructure:"CANCELLATION_RATE"`
	DBDriver           string        `mapstructure:"DB_DRIVER"`
	DBSource           string        `mapstructure:"DB_SOURCE"`
	MigrationURL       string        `mapstructure:"MIGRATION_URL"`
}

// Load reads configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:5000")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("STAGE_DELAY", "2s")
	v.SetDefault("STAGE_JITTER", "1s")
	v.SetDefault("OPENING_BALANCE", "10000.00")
	v.SetDefault("CANCELLATION_POLICY", CancellationManual)
	v.SetDefault("CANCELLATION_RATE", 0.0)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("MIGRATION_URL", "file://db/migration")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
