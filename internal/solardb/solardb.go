// Package solardb defines the ClickHouse schema shared by the
// SOLAR-stream ingest and reporting tools.
package solardb

// SunTime represents one per-pixel per-day sunrise/sunset record.
// Times are minutes past local midnight; -1 marks nodata pixels and
// polar day/night.
type SunTime struct {
	Year       int16  `ch:"year"`
	DayOfYear  int32  `ch:"day_of_year"`
	X          uint32 `ch:"x"`
	Y          uint32 `ch:"y"`
	SunriseMin int16  `ch:"sunrise_min"`
	SunsetMin  int16  `ch:"sunset_min"`
	SourceFile string `ch:"source_file"`
}

// DefaultTable is the fully qualified default target table.
const DefaultTable = "solar.sun_times"

// SchemaDDL creates the sun_times table. Ordered by (year, day_of_year)
// so per-day daylight aggregations scan contiguous ranges.
const SchemaDDL = `CREATE TABLE IF NOT EXISTS %s (
    year        Int16,
    day_of_year Int32,
    x           UInt32,
    y           UInt32,
    sunrise_min Int16,
    sunset_min  Int16,
    source_file String
) ENGINE = MergeTree()
ORDER BY (year, day_of_year, y, x)`

// SchemaVersion is the current sun_times schema version.
const SchemaVersion = 1
