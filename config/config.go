// Package config provides the environment configuration of the drivers.
package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds driver configuration.
// Physics parameters are given on the command line, not here.
type Config struct {
	LogLevel  string
	LogPretty bool
	// Workers is the number of concurrent eigen solves.
	Workers int
	// OutputDir receives the quench result files.
	OutputDir string
	// CacheDir stores basis snapshots, empty disables the cache.
	CacheDir         string
	ProgressInterval time.Duration
	// RtolFloor is the smallest degeneracy tolerance.
	RtolFloor float64
	// MetricsPath receives the counters at exit, empty disables the dump.
	MetricsPath string
}

// Load reads configuration from environment variables, after loading a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:         getEnv("SPINCHAIN_LOG_LEVEL", "info"),
		LogPretty:        getEnvAsBool("SPINCHAIN_LOG_PRETTY", false),
		Workers:          getEnvAsInt("SPINCHAIN_WORKERS", runtime.NumCPU()),
		OutputDir:        getEnv("SPINCHAIN_OUTPUT_DIR", "examples/output"),
		CacheDir:         getEnv("SPINCHAIN_CACHE_DIR", ""),
		ProgressInterval: time.Duration(getEnvAsInt("SPINCHAIN_PROGRESS_INTERVAL", 10)) * time.Second,
		RtolFloor:        getEnvAsFloat("SPINCHAIN_RTOL_FLOOR", 1e-5),
		MetricsPath:      getEnv("SPINCHAIN_METRICS_PATH", ""),
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("log level %q", c.LogLevel)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers %d", c.Workers)
	}
	if c.OutputDir == "" {
		return errors.Errorf("empty output dir")
	}
	if c.ProgressInterval < 0 {
		return errors.Errorf("progress interval %s", c.ProgressInterval)
	}
	if !(c.RtolFloor > 0) {
		return errors.Errorf("rtol floor %g", c.RtolFloor)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
