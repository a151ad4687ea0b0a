// Package config loads service and CLI settings from an optional YAML file
// and CDS_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"cdsplan/internal/opt"
)

const EnvPrefix = "CDS"

type Config struct {
	HTTP        HTTPConfig      `mapstructure:"http"`
	Log         LogConfig       `mapstructure:"log"`
	DatabaseURL string          `mapstructure:"database_url"`
	DBMigrate   bool            `mapstructure:"db_migrate"`
	RedisURL    string          `mapstructure:"redis_url"`
	PortsFile   string          `mapstructure:"ports_file"`
	Webhook     WebhookConfig   `mapstructure:"webhook"`
	Optimizer   OptimizerConfig `mapstructure:"optimizer"`
}

type HTTPConfig struct {
	Addr         string   `mapstructure:"addr"`
	Port         string   `mapstructure:"port"` // PORT, overrides the port of Addr
	AllowOrigins []string `mapstructure:"allow_origins"`
	RateRPS      float64  `mapstructure:"rate_rps"` // 0 disables rate limiting
	RateBurst    int      `mapstructure:"rate_burst"`
	MaxBodyBytes int64    `mapstructure:"max_body_bytes"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WebhookConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type OptimizerConfig struct {
	PopulationSize int           `mapstructure:"population_size"`
	Generations    int           `mapstructure:"generations"`
	CrossoverProb  float64       `mapstructure:"crossover_prob"`
	MutationProb   float64       `mapstructure:"mutation_prob"`
	IndexProb      float64       `mapstructure:"index_prob"`
	TournamentSize int           `mapstructure:"tournament_size"`
	Workers        int           `mapstructure:"workers"`
	TimeBudget     time.Duration `mapstructure:"time_budget"`
}

// Opt converts to the optimizer's own config.
func (c OptimizerConfig) Opt() opt.Config {
	return opt.Config{
		PopulationSize: c.PopulationSize,
		Generations:    c.Generations,
		CrossoverProb:  c.CrossoverProb,
		MutationProb:   c.MutationProb,
		IndexProb:      c.IndexProb,
		TournamentSize: c.TournamentSize,
		Workers:        c.Workers,
		TimeBudget:     c.TimeBudget,
	}
}

func setDefaults(v *viper.Viper) {
	d := opt.DefaultConfig()
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.port", "")
	v.SetDefault("http.allow_origins", []string{"*"})
	v.SetDefault("http.rate_rps", 20.0)
	v.SetDefault("http.rate_burst", 40)
	v.SetDefault("http.max_body_bytes", 8<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("database_url", "")
	v.SetDefault("db_migrate", true)
	v.SetDefault("redis_url", "")
	v.SetDefault("ports_file", "")
	v.SetDefault("webhook.max_attempts", 8)
	v.SetDefault("webhook.poll_interval", time.Second)
	v.SetDefault("webhook.timeout", 10*time.Second)
	v.SetDefault("optimizer.population_size", d.PopulationSize)
	v.SetDefault("optimizer.generations", d.Generations)
	v.SetDefault("optimizer.crossover_prob", d.CrossoverProb)
	v.SetDefault("optimizer.mutation_prob", d.MutationProb)
	v.SetDefault("optimizer.index_prob", d.IndexProb)
	v.SetDefault("optimizer.tournament_size", d.TournamentSize)
	v.SetDefault("optimizer.workers", 0)
	v.SetDefault("optimizer.time_budget", time.Duration(0))
}

// Load reads path (skipped when empty) and the environment. Besides the
// CDS_ names, the unprefixed PORT, DATABASE_URL, REDIS_URL and
// WEBHOOK_MAX_ATTEMPTS are honoured.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"http.port":            "PORT",
		"database_url":         "DATABASE_URL",
		"redis_url":            "REDIS_URL",
		"db_migrate":           "DB_MIGRATE",
		"webhook.max_attempts": "WEBHOOK_MAX_ATTEMPTS",
	} {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	if p := strings.TrimSpace(cfg.HTTP.Port); p != "" {
		cfg.HTTP.Addr = ":" + p
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.RateRPS < 0 || c.HTTP.RateBurst < 0 {
		errs = append(errs, errors.New("http.rate_rps and http.rate_burst must be >= 0"))
	}
	if c.HTTP.RateRPS > 0 && c.HTTP.RateBurst == 0 {
		errs = append(errs, errors.New("http.rate_burst must be > 0 when rate limiting"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be > 0"))
	}
	if c.Webhook.MaxAttempts < 1 {
		errs = append(errs, errors.New("webhook.max_attempts must be >= 1"))
	}
	if c.Webhook.PollInterval <= 0 {
		errs = append(errs, errors.New("webhook.poll_interval must be > 0"))
	}
	if err := c.Optimizer.Opt().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
