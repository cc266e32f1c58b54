/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // "mongo" or "dynamodb"
	Mongo    MongoConfig    `yaml:"mongo"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URL      string `yaml:"url"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// DynamoDBConfig configures the DynamoDB backend.
type DynamoDBConfig struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Backend: "mongo",
			Mongo: MongoConfig{
				URL:      "localhost",
				Port:     27017,
				Database: "dyndata",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Store.Backend, "DYNDATA_STORE_BACKEND")
	setString(&c.Store.Mongo.URL, "DYNDATA_DB_URL")
	setInt(&c.Store.Mongo.Port, "DYNDATA_DB_PORT")
	setString(&c.Store.Mongo.Database, "DYNDATA_DB_NAME")
	setString(&c.Store.DynamoDB.AccessKey, "AWS_ACCESS_KEY_ID")
	setString(&c.Store.DynamoDB.SecretKey, "AWS_SECRET_ACCESS_KEY")
	setString(&c.Store.DynamoDB.Region, "AWS_REGION")
	setString(&c.Store.DynamoDB.Table, "DYNDATA_DDB_TABLE")
	setString(&c.Server.Host, "DYNDATA_HTTP_HOST")
	setInt(&c.Server.Port, "DYNDATA_HTTP_PORT")
	setString(&c.Logging.Level, "DYNDATA_LOG_LEVEL")
	setString(&c.Logging.Format, "DYNDATA_LOG_FORMAT")
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "mongo":
		if c.Store.Mongo.Port < 1 || c.Store.Mongo.Port > 0xFFFF {
			return fmt.Errorf("database port must be between 1 and %d", 0xFFFF)
		}
		if c.Store.Mongo.Database == "" {
			return fmt.Errorf("database name cannot be empty")
		}
	case "dynamodb":
		if c.Store.DynamoDB.Table == "" {
			return fmt.Errorf("dynamodb table cannot be empty")
		}
		if c.Store.DynamoDB.Region == "" {
			return fmt.Errorf("dynamodb region cannot be empty")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want mongo or dynamodb)", c.Store.Backend)
	}
	if c.Server.Port < 1 || c.Server.Port > 0xFFFF {
		return fmt.Errorf("server port must be between 1 and %d", 0xFFFF)
	}
	return nil
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
