package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Mongo     MongoConfig     `json:"mongo"`
	Security  SecurityConfig  `json:"security"`
	Dashboard DashboardConfig `json:"dashboard"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// MongoConfig represents document-store configuration
type MongoConfig struct {
	URI          string        `json:"uri"`
	Database     string        `json:"database"`
	Collection   string        `json:"collection"`
	QueryTimeout time.Duration `json:"query_timeout"`
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

// DashboardConfig bounds the aggregation pipeline
type DashboardConfig struct {
	WindowSize  int64         `json:"window_size"`
	CacheTTL    time.Duration `json:"cache_ttl"`
	RefreshSpec string        `json:"refresh_spec"` // cron expression for the worker
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Mongo: MongoConfig{
			URI:          "mongodb://localhost:27017",
			Database:     "clinicalforge",
			Collection:   "submissions",
			QueryTimeout: 10 * time.Second,
		},
		Dashboard: DashboardConfig{
			WindowSize:  1000,
			CacheTTL:    5 * time.Minute,
			RefreshSpec: "@every 1m",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if db := os.Getenv("MONGO_DATABASE"); db != "" {
		config.Mongo.Database = db
	}
	if coll := os.Getenv("MONGO_COLLECTION"); coll != "" {
		config.Mongo.Collection = coll
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
