// Package config loads promptpoll settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tbiehn/promptpoll"
)

// Config holds everything a run needs before it starts.
type Config struct {
	Endpoint    string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxParallel int
	Retries     int
	OutputDir   string
	LogFile     string
	LogLevel    string
}

// Load reads envFilePath if it exists, then the process environment.
// A missing file is not an error; an unparsable value is.
func Load(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		Endpoint:  getEnv("PROMPTPOLL_ENDPOINT", promptpoll.DefaultEndpoint),
		Model:     getEnv("PROMPTPOLL_MODEL", promptpoll.DefaultModel),
		APIKey:    getEnv("OPENAI_API_KEY", ""),
		OutputDir: getEnv("PROMPTPOLL_OUTPUT_DIR", "results"),
		LogFile:   getEnv("PROMPTPOLL_LOG_FILE", "app.log"),
		LogLevel:  getEnv("PROMPTPOLL_LOG_LEVEL", "debug"),
	}

	var err error
	if cfg.Timeout, err = getEnvAsDuration("PROMPTPOLL_TIMEOUT", promptpoll.DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxParallel, err = getEnvAsInt("PROMPTPOLL_MAX_PARALLEL", promptpoll.DefaultMaxParallel); err != nil {
		return nil, err
	}
	if cfg.Retries, err = getEnvAsInt("PROMPTPOLL_RETRIES", 0); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no run could use.
func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("endpoint must not be empty")
	case c.Model == "":
		return errors.New("model must not be empty")
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	case c.MaxParallel <= 0:
		return fmt.Errorf("max parallel must be positive, got %d", c.MaxParallel)
	case c.Retries < 0:
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	return nil
}

// Settings is the immutable subset handed to the poller.
func (c *Config) Settings() promptpoll.Settings {
	return promptpoll.Settings{
		Model:       c.Model,
		Timeout:     c.Timeout,
		MaxParallel: c.MaxParallel,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}
