package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Analytics     AnalyticsConfig     `mapstructure:"analytics"`
	ReferenceData ReferenceDataConfig `mapstructure:"reference_data"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AnalyticsConfig tunes the gut-brain correlator.
type AnalyticsConfig struct {
	// PairingWindowDays is the maximum distance between a microbiome test
	// and the mood observation it is paired with.
	PairingWindowDays int `mapstructure:"pairing_window_days"`
	// BacteriaMinSamples gates per-taxon correlations, which need more
	// paired points than the aggregate ones to be meaningful.
	BacteriaMinSamples  int    `mapstructure:"bacteria_min_samples"`
	MoodSmoothingWindow int    `mapstructure:"mood_smoothing_window"`
	CorrelationCacheTTL string `mapstructure:"correlation_cache_ttl"`
}

// CacheTTL parses the configured correlation cache TTL.
func (a AnalyticsConfig) CacheTTL() time.Duration {
	d, err := time.ParseDuration(a.CorrelationCacheTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// ReferenceDataConfig points at an optional population baseline override
// file; empty means the embedded defaults.
type ReferenceDataConfig struct {
	Path string `mapstructure:"path"`
}

type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Analytics.PairingWindowDays <= 0 {
		return nil, fmt.Errorf("analytics.pairing_window_days must be positive, got %d", config.Analytics.PairingWindowDays)
	}
	if config.Analytics.CorrelationCacheTTL != "" {
		if _, err := time.ParseDuration(config.Analytics.CorrelationCacheTTL); err != nil {
			return nil, fmt.Errorf("invalid correlation cache TTL: %w", err)
		}
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "vitalia")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("analytics.pairing_window_days", 7)
	viper.SetDefault("analytics.bacteria_min_samples", 4)
	viper.SetDefault("analytics.mood_smoothing_window", 7)
	viper.SetDefault("analytics.correlation_cache_ttl", "15m")

	viper.SetDefault("reference_data.path", "")

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.otlp_endpoint", "")
	viper.SetDefault("telemetry.sample_rate", 0.2)
}
