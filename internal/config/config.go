package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/protrade/protrade/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backtest BacktestConfig `mapstructure:"backtest"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// BacktestConfig holds the default simulation parameters. API requests and
// CLI flags may override any of them per run.
type BacktestConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
	Leverage       float64 `mapstructure:"leverage"`
	RiskFreeRate   float64 `mapstructure:"risk_free_rate"`
	PeriodsPerYear int     `mapstructure:"periods_per_year"`
	RegimeWindow   int     `mapstructure:"regime_window"`
}

// StorageConfig selects where uploaded datasets live.
type StorageConfig struct {
	Type        string   `mapstructure:"type"` // "memory", "localfs" or "s3"
	Path        string   `mapstructure:"path"` // For localfs
	MaxDatasets int      `mapstructure:"max_datasets"`
	S3          S3Config `mapstructure:"s3"` // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Backtest: BacktestConfig{
			InitialCapital: 10000,
			Leverage:       1.0,
			RiskFreeRate:   0,
			PeriodsPerYear: 756,
			RegimeWindow:   21,
		},
		Storage: StorageConfig{
			Type:        "memory",
			MaxDatasets: 100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	// Backtest defaults validation
	if c.Backtest.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %g", c.Backtest.InitialCapital))
	}
	if c.Backtest.Leverage < 0.1 || c.Backtest.Leverage > 10.0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("leverage must be between 0.1 and 10.0, got %g", c.Backtest.Leverage))
	}
	if c.Backtest.PeriodsPerYear < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("periods_per_year must be positive, got %d", c.Backtest.PeriodsPerYear))
	}
	if c.Backtest.RegimeWindow < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("regime_window must be positive, got %d", c.Backtest.RegimeWindow))
	}

	// Storage validation - backend-specific requirements
	switch c.Storage.Type {
	case "memory":
	case "localfs":
		if c.Storage.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage path required when storage type is localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when storage type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown storage type: %s", c.Storage.Type))
	}
	if c.Storage.MaxDatasets < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_datasets must be positive, got %d", c.Storage.MaxDatasets))
	}

	return nil
}
