// Package raster provides the GDAL-backed raster collaborators used by
// the processing pipeline: a windowed reader for single-band elevation
// models and a windowed multi-band writer for solar time outputs.
package raster

import "github.com/geodem-lab/solar-dem-apps/internal/geo"

// Source is a read-only single-band floating point raster.
type Source interface {
	Width() int
	Height() int
	GeoTransform() geo.GeoTransform
	ProjectionWKT() string
	// NoData returns the band nodata sentinel and whether one is set.
	NoData() (float64, bool)
	// ReadBlock reads the w*h sub-rectangle at (x, y) into buf, which
	// must hold at least w*h samples.
	ReadBlock(x, y, w, h int, buf []float32) error
	Close() error
}

// Sink is a write-only multi-band floating point raster.
type Sink interface {
	// WriteBlock writes the w*h sub-rectangle at (x, y) across all
	// bands in one call. The buffer is band-major: each band's w*h
	// pixels are contiguous.
	WriteBlock(x, y, w, h int, bands []float32) error
	Close() error
}
