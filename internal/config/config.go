// Package config reads function settings from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
)

// DefaultTableName is used when TABLE_NAME is unset
const DefaultTableName = "CommentsTable"

// Config holds the settings shared by all functions
type Config struct {
	Region    string
	TableName string
	QueueURL  string
	LogLevel  string
}

func getEnv(name, fallback string) string {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return fallback
	}
	return v
}

// Load reads the environment
func Load() Config {
	return Config{
		Region:    os.Getenv("AWS_REGION"),
		TableName: getEnv("TABLE_NAME", DefaultTableName),
		QueueURL:  os.Getenv("QUEUE_URL"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

// RequireQueue fails when no queue is configured
func (c Config) RequireQueue() error {
	if c.QueueURL == "" {
		return fmt.Errorf("missing environment variable: QUEUE_URL")
	}
	return nil
}

// AWS returns client config, leaving the region to the SDK chain when unset
func (c Config) AWS() *aws.Config {
	cfg := aws.NewConfig()
	if c.Region != "" {
		cfg = cfg.WithRegion(c.Region)
	}
	return cfg
}
