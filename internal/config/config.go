package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. STEALQ_POOL_WORKERS for pool.workers.
const EnvPrefix = "STEALQ"

// Config represents the complete stealq configuration
type Config struct {
	Pool    PoolConfig    `mapstructure:"pool"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Bench   BenchConfig   `mapstructure:"bench"`
}

// PoolConfig controls the worker pool
type PoolConfig struct {
	Workers       int           `mapstructure:"workers"`
	CapacityHint  int           `mapstructure:"capacity_hint"`
	InboxSize     int           `mapstructure:"inbox_size"`
	StealInterval time.Duration `mapstructure:"steal_interval"`
}

type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format is json or console
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	// Addr serves /metrics when set, e.g. ":9090"
	Addr string `mapstructure:"addr"`
}

// BenchConfig describes the synthetic load of the bench command
type BenchConfig struct {
	Tasks int `mapstructure:"tasks"`
	// Work is how long each synthetic task spins for
	Work time.Duration `mapstructure:"work"`
	// Fanout is the number of child tasks each task submits
	Fanout int `mapstructure:"fanout"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Pool: PoolConfig{
			Workers:       runtime.NumCPU(),
			CapacityHint:  32,
			InboxSize:     64,
			StealInterval: 5 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Namespace: "stealq",
		},
		Bench: BenchConfig{
			Tasks: 10000,
			Work:  50 * time.Microsecond,
		},
	}
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("pool.workers", defaults.Pool.Workers)
	v.SetDefault("pool.capacity_hint", defaults.Pool.CapacityHint)
	v.SetDefault("pool.inbox_size", defaults.Pool.InboxSize)
	v.SetDefault("pool.steal_interval", defaults.Pool.StealInterval)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetDefault("metrics.namespace", defaults.Metrics.Namespace)
	v.SetDefault("metrics.addr", defaults.Metrics.Addr)

	v.SetDefault("bench.tasks", defaults.Bench.Tasks)
	v.SetDefault("bench.work", defaults.Bench.Work)
	v.SetDefault("bench.fanout", defaults.Bench.Fanout)
}

// BindEnv makes STEALQ_* environment variables override config keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return Config{}, errs
	}
	return cfg, nil
}
