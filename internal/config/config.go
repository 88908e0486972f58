package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	CatalogSourcePostgres = "postgres"
	CatalogSourceNATS     = "nats"
)

type Config struct {
	ServiceName    string
	Port           string
	DatabaseURL    string
	RedisURL       string
	KafkaBrokers   string
	NATSURL        string
	JaegerEndpoint string

	LogLevel  string
	LogFormat string

	DepositBase      decimal.Decimal
	OrderIDPrefix    string
	BatchConcurrency int

	CatalogSource         string // postgres, nats
	CatalogCacheTTL       time.Duration
	CatalogRequestTimeout time.Duration
}

// Brokers splits the comma separated KAFKA_BROKERS value.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "reservation-payments")
	v.SetDefault("port", "8082")
	v.SetDefault("redis_url", "localhost:6379")
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("nats_url", "nats://localhost:4222")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("deposit_base", "500")
	v.SetDefault("order_id_prefix", "RES-")
	v.SetDefault("batch_concurrency", 8)
	v.SetDefault("catalog_source", CatalogSourcePostgres)
	v.SetDefault("catalog_cache_ttl", "10m")
	v.SetDefault("catalog_request_timeout", "3s")
}

// Load reads configuration from environment variables, an optional
// config.yaml in the working directory, and built-in defaults, in that order
// of precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()

	depositBase, err := decimal.NewFromString(v.GetString("deposit_base"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEPOSIT_BASE %q: %w", v.GetString("deposit_base"), err)
	}

	cfg := &Config{
		ServiceName:           v.GetString("service_name"),
		Port:                  v.GetString("port"),
		DatabaseURL:           v.GetString("database_url"),
		RedisURL:              v.GetString("redis_url"),
		KafkaBrokers:          v.GetString("kafka_brokers"),
		NATSURL:               v.GetString("nats_url"),
		JaegerEndpoint:        v.GetString("jaeger_endpoint"),
		LogLevel:              v.GetString("log_level"),
		LogFormat:             v.GetString("log_format"),
		DepositBase:           depositBase,
		OrderIDPrefix:         v.GetString("order_id_prefix"),
		BatchConcurrency:      v.GetInt("batch_concurrency"),
		CatalogSource:         strings.ToLower(v.GetString("catalog_source")),
		CatalogCacheTTL:       v.GetDuration("catalog_cache_ttl"),
		CatalogRequestTimeout: v.GetDuration("catalog_request_timeout"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DepositBase.IsNegative() {
		return fmt.Errorf("DEPOSIT_BASE must not be negative")
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}
	switch c.CatalogSource {
	case CatalogSourcePostgres, CatalogSourceNATS:
	default:
		return fmt.Errorf("unknown CATALOG_SOURCE %q", c.CatalogSource)
	}
	return nil
}
