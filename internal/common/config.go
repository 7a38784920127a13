// Package common provides shared utilities for the solar DEM tools.
package common

import (
	"os"
	"path/filepath"
)

// Config holds common configuration for all applications.
type Config struct {
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	DataDir            string
	LogLevel           string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     9000,
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solar"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		DataDir:            getEnv("SOLAR_DATA_DIR", "/var/lib/solar-dem"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// StreamDataDir returns the directory for captured SOLAR stream files.
func (c *Config) StreamDataDir() string {
	return filepath.Join(c.DataDir, "streams")
}

// ParquetDataDir returns the directory for Parquet exports.
func (c *Config) ParquetDataDir() string {
	return filepath.Join(c.DataDir, "parquet")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
