package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the engine's file configuration. Environment variables cover
// credentials and endpoints; the YAML file covers tunables.
type Config struct {
	Engine struct {
		SideEffectTimeout time.Duration `yaml:"side_effect_timeout"`
	} `yaml:"engine"`
	Outbox struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		BatchSize    int           `yaml:"batch_size"`
	} `yaml:"outbox"`
	Bus struct {
		Enabled       bool   `yaml:"enabled"`
		Stream        string `yaml:"stream"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"bus"`
}

func defaultConfig() *Config {
	var config Config
	config.Engine.SideEffectTimeout = 10 * time.Second
	config.Outbox.PollInterval = 5 * time.Second
	config.Outbox.BatchSize = 100
	config.Bus.Enabled = false
	config.Bus.Stream = "LEAGUE_TX"
	config.Bus.SubjectPrefix = "league.tx"
	return &config
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
