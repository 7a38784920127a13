package raster

import (
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/geodem-lab/solar-dem-apps/internal/geo"
)

var registerOnce sync.Once

func registerDrivers() {
	registerOnce.Do(godal.RegisterAll)
}

// Creation options for solar output GeoTIFFs. LZW with a horizontal
// predictor compresses the smooth time surfaces well, and BIGTIFF is
// required because a full-year output easily exceeds 4 GiB.
var creationOptions = []string{
	"COMPRESS=LZW",
	"PREDICTOR=2",
	"TILED=YES",
	"BLOCKXSIZE=512",
	"BLOCKYSIZE=512",
	"BIGTIFF=IF_NEEDED",
}

// DEM is a godal-backed elevation raster opened read-only.
type DEM struct {
	ds     *godal.Dataset
	width  int
	height int
	gt     geo.GeoTransform
	proj   string
}

var _ Source = (*DEM)(nil)

// OpenDEM opens a single-band elevation raster.
func OpenDEM(path string) (*DEM, error) {
	registerDrivers()

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	structure := ds.Structure()
	if structure.NBands < 1 {
		ds.Close()
		return nil, fmt.Errorf("open %s: no raster bands", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("open %s: geotransform: %w", path, err)
	}

	proj := ""
	if sr := ds.SpatialRef(); sr != nil {
		if wkt, err := sr.WKT(); err == nil {
			proj = wkt
		}
	}

	return &DEM{
		ds:     ds,
		width:  structure.SizeX,
		height: structure.SizeY,
		gt:     geo.GeoTransform(gt),
		proj:   proj,
	}, nil
}

func (d *DEM) Width() int                     { return d.width }
func (d *DEM) Height() int                    { return d.height }
func (d *DEM) GeoTransform() geo.GeoTransform { return d.gt }
func (d *DEM) ProjectionWKT() string          { return d.proj }

func (d *DEM) NoData() (float64, bool) {
	return d.ds.Bands()[0].NoData()
}

func (d *DEM) ReadBlock(x, y, w, h int, buf []float32) error {
	band := d.ds.Bands()[0]
	return band.Read(x, y, buf[:w*h], w, h)
}

func (d *DEM) Close() error {
	return d.ds.Close()
}

// SolarOutput is a godal-backed multi-band Float32 GeoTIFF holding one
// sunrise and one sunset band per day of the year.
type SolarOutput struct {
	ds       *godal.Dataset
	numBands int
}

var _ Sink = (*SolarOutput)(nil)

// CreateSolarOutput creates the output raster with 2*daysInYear bands,
// labeled "Day {n} Sunrise" / "Day {n} Sunset", each carrying the given
// nodata sentinel. Geotransform and projection are fixed at creation.
func CreateSolarOutput(path string, width, height, daysInYear int, gt geo.GeoTransform, projWKT string, nodata float64) (*SolarOutput, error) {
	registerDrivers()

	numBands := 2 * daysInYear
	ds, err := godal.Create(godal.GTiff, path, numBands, godal.Float32, width, height,
		godal.CreationOption(creationOptions...))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	if err := ds.SetGeoTransform([6]float64(gt)); err != nil {
		ds.Close()
		return nil, fmt.Errorf("create %s: set geotransform: %w", path, err)
	}

	if projWKT != "" {
		sr, err := godal.NewSpatialRefFromWKT(projWKT)
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("create %s: parse projection: %w", path, err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			ds.Close()
			return nil, fmt.Errorf("create %s: set projection: %w", path, err)
		}
	}

	for i, band := range ds.Bands() {
		if err := band.SetNoData(nodata); err != nil {
			ds.Close()
			return nil, fmt.Errorf("create %s: band %d nodata: %w", path, i+1, err)
		}

		day := i/2 + 1
		edge := "Sunrise"
		if i%2 == 1 {
			edge = "Sunset"
		}
		if err := band.SetDescription(fmt.Sprintf("Day %d %s", day, edge)); err != nil {
			ds.Close()
			return nil, fmt.Errorf("create %s: band %d description: %w", path, i+1, err)
		}
	}

	return &SolarOutput{ds: ds, numBands: numBands}, nil
}

// WriteBlock writes one tile across all bands in a single call. The
// buffer must be band-major with a band stride of w*h samples.
func (o *SolarOutput) WriteBlock(x, y, w, h int, bands []float32) error {
	return o.ds.Write(x, y, bands[:w*h*o.numBands], w, h, godal.BandInterleaved())
}

func (o *SolarOutput) Close() error {
	return o.ds.Close()
}
