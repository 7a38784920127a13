// Package pipeline applies the solar position calculation across an
// entire elevation raster. Two modes share the same per-pixel math:
// raster mode emits a full-year multi-band GeoTIFF tile by tile, and
// stream mode emits one binary record per calendar day.
package pipeline

import (
	"math"

	"github.com/geodem-lab/solar-dem-apps/internal/common"
	"github.com/geodem-lab/solar-dem-apps/internal/solarpos"
)

const (
	// DefaultTileSize matches the 512x512 internal tiling of the
	// output GeoTIFF, so one compute tile maps to one storage tile.
	DefaultTileSize = 512

	// DefaultThreads favors high-core-count hosts; callers pass their
	// own value for smaller machines.
	DefaultThreads = 96

	// NoDataValue marks pixels with no computed solar time in raster
	// outputs.
	NoDataValue = float32(-9999.0)
)

// Config holds the processing parameters shared by both modes.
type Config struct {
	Year           int
	TimezoneOffset float64
	Threads        int
	TileSize       int
	NoData         float32
}

// Pipeline orchestrates reads, the parallel compute phase, and writes.
// I/O happens only on the calling goroutine; workers touch nothing but
// their own slice of the output buffers.
type Pipeline struct {
	cfg   Config
	calc  solarpos.Calculator
	stats *common.Stats
}

// New returns a Pipeline for the given configuration, filling in
// defaults for unset fields.
func New(cfg Config) *Pipeline {
	if cfg.Threads <= 0 {
		cfg.Threads = DefaultThreads
	}
	if cfg.TileSize <= 0 {
		cfg.TileSize = DefaultTileSize
	}
	if cfg.NoData == 0 {
		cfg.NoData = NoDataValue
	}

	return &Pipeline{
		cfg:   cfg,
		calc:  solarpos.NewCalculator(cfg.TimezoneOffset),
		stats: common.NewStats(),
	}
}

// Stats exposes the pipeline's telemetry counters.
func (p *Pipeline) Stats() *common.Stats {
	return p.stats
}

// isNoData reports whether an elevation sample should be skipped. NaN,
// the band nodata sentinel, and exactly zero (sea/void fill in the
// source DEMs) all count.
func isNoData(elevation float32, nodata float32, hasNodata bool) bool {
	if elevation != elevation { // NaN
		return true
	}
	if hasNodata && elevation == nodata {
		return true
	}
	return elevation == 0.0
}

// checkBufferSize validates a 64-bit element count against the host's
// index range before allocation. Full-year band counts over large tiles
// overflow 32-bit sizing, so all size math stays in int64.
func checkBufferSize(n int64) (int, bool) {
	if n <= 0 || n > int64(math.MaxInt)/4 {
		return 0, false
	}
	return int(n), true
}
