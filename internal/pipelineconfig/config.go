// Copyright 2025 James Ross
//
// Package pipelineconfig loads the shared configuration every controller and
// worker binary needs: Redis (queue backing store), ClickHouse (warehouse),
// observability, and circuit-breaker tuning for upstream calls. Adapted from
// the teacher's internal/config, replaced worker-pool/producer settings with
// this system's warehouse/queue settings.
package pipelineconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/flyingrobots/catalog-transfer-fleet/internal/catalogapi"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/queuepub"
	"github.com/flyingrobots/catalog-transfer-fleet/internal/warehouse"
)

type Redis struct {
	Addr         string        `mapstructure:"addr"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

type CircuitBreaker struct {
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	Window           time.Duration `mapstructure:"window"`
	CooldownPeriod   time.Duration `mapstructure:"cooldown_period"`
	MinSamples       int           `mapstructure:"min_samples"`
}

type Observability struct {
	MetricsPort          int     `mapstructure:"metrics_port"`
	LogLevel             string  `mapstructure:"log_level"`
	TracingEnabled       bool    `mapstructure:"tracing_enabled"`
	TracingEnvironment   string  `mapstructure:"tracing_environment"`
	TracingSamplingStrat string  `mapstructure:"tracing_sampling_strategy"`
	TracingSamplingRate  float64 `mapstructure:"tracing_sampling_rate"`
}

type Config struct {
	Redis          Redis                    `mapstructure:"redis"`
	Warehouse      warehouse.Config         `mapstructure:"warehouse"`
	Queue          queuepub.Config          `mapstructure:"queue"`
	LegacyCatalog  catalogapi.RESTConfig    `mapstructure:"legacy_catalog"`
	TargetCatalog  catalogapi.RESTConfig    `mapstructure:"target_catalog"`
	Directory      catalogapi.RESTConfig    `mapstructure:"directory"`
	Quotas         catalogapi.RESTConfig    `mapstructure:"quotas"`
	CircuitBreaker CircuitBreaker           `mapstructure:"circuit_breaker"`
	Observability  Observability            `mapstructure:"observability"`
	FanoutWorkers  int                      `mapstructure:"fanout_workers"`
}

func defaultConfig() *Config {
	return &Config{
		Redis: Redis{
			Addr:         "localhost:6379",
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			MaxRetries:   3,
		},
		Warehouse: warehouse.Config{
			Addr:            "localhost:9000",
			Database:        "catalog_migration",
			DialTimeout:     10 * time.Second,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			WriteMaxRetries: 5,
			WriteBaseDelay:  2 * time.Second,
		},
		Queue: queuepub.Config{
			BaseQueueName: "catalog-migration",
			QueueWarmup:   60 * time.Second,
		},
		CircuitBreaker: CircuitBreaker{
			FailureThreshold: 0.5,
			Window:           1 * time.Minute,
			CooldownPeriod:   30 * time.Second,
			MinSamples:       20,
		},
		Observability: Observability{
			MetricsPort:          9090,
			LogLevel:             "info",
			TracingEnabled:       false,
			TracingEnvironment:   "dev",
			TracingSamplingStrat: "probabilistic",
			TracingSamplingRate:  0.1,
		},
		FanoutWorkers: 10,
	}
}

// Load reads configuration from a YAML file (if present) with environment
// variable overrides, matching the layering of the teacher's config.Load.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("redis.addr", def.Redis.Addr)
	v.SetDefault("redis.dial_timeout", def.Redis.DialTimeout)
	v.SetDefault("redis.read_timeout", def.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", def.Redis.WriteTimeout)
	v.SetDefault("redis.max_retries", def.Redis.MaxRetries)

	v.SetDefault("warehouse.addr", def.Warehouse.Addr)
	v.SetDefault("warehouse.database", def.Warehouse.Database)
	v.SetDefault("warehouse.dial_timeout", def.Warehouse.DialTimeout)
	v.SetDefault("warehouse.max_open_conns", def.Warehouse.MaxOpenConns)
	v.SetDefault("warehouse.max_idle_conns", def.Warehouse.MaxIdleConns)
	v.SetDefault("warehouse.write_max_retries", def.Warehouse.WriteMaxRetries)
	v.SetDefault("warehouse.write_base_delay", def.Warehouse.WriteBaseDelay)

	v.SetDefault("queue.base_queue_name", def.Queue.BaseQueueName)
	v.SetDefault("queue.queue_warmup", def.Queue.QueueWarmup)

	v.SetDefault("circuit_breaker.failure_threshold", def.CircuitBreaker.FailureThreshold)
	v.SetDefault("circuit_breaker.window", def.CircuitBreaker.Window)
	v.SetDefault("circuit_breaker.cooldown_period", def.CircuitBreaker.CooldownPeriod)
	v.SetDefault("circuit_breaker.min_samples", def.CircuitBreaker.MinSamples)

	v.SetDefault("observability.metrics_port", def.Observability.MetricsPort)
	v.SetDefault("observability.log_level", def.Observability.LogLevel)
	v.SetDefault("observability.tracing_enabled", def.Observability.TracingEnabled)
	v.SetDefault("observability.tracing_environment", def.Observability.TracingEnvironment)
	v.SetDefault("observability.tracing_sampling_strategy", def.Observability.TracingSamplingStrat)
	v.SetDefault("observability.tracing_sampling_rate", def.Observability.TracingSamplingRate)
	v.SetDefault("fanout_workers", def.FanoutWorkers)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config constraints, matching the teacher's Validate shape.
func Validate(cfg *Config) error {
	if cfg.FanoutWorkers < 1 {
		return fmt.Errorf("fanout_workers must be >= 1")
	}
	if cfg.Observability.MetricsPort <= 0 || cfg.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be 1..65535")
	}
	if cfg.Warehouse.Database == "" {
		return fmt.Errorf("warehouse.database must be set")
	}
	if cfg.Queue.BaseQueueName == "" {
		return fmt.Errorf("queue.base_queue_name must be set")
	}
	return nil
}
