package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "localhost", cfg.ClickHouseHost)
	assert.Equal(t, 9000, cfg.ClickHousePort)
	assert.Equal(t, "solar", cfg.ClickHouseDatabase)
	assert.Equal(t, "default", cfg.ClickHouseUser)
	assert.Equal(t, "/var/lib/solar-dem", cfg.DataDir)
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("CLICKHOUSE_HOST", "ch.internal")
	t.Setenv("CLICKHOUSE_DATABASE", "solar_test")
	t.Setenv("SOLAR_DATA_DIR", "/tmp/solar")

	cfg := DefaultConfig()

	assert.Equal(t, "ch.internal", cfg.ClickHouseHost)
	assert.Equal(t, "solar_test", cfg.ClickHouseDatabase)
	assert.Equal(t, "/tmp/solar", cfg.DataDir)
	assert.Equal(t, filepath.Join("/tmp/solar", "streams"), cfg.StreamDataDir())
	assert.Equal(t, filepath.Join("/tmp/solar", "parquet"), cfg.ParquetDataDir())
}
