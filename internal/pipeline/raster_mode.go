package pipeline

import (
	"fmt"
	"log"

	"github.com/geodem-lab/solar-dem-apps/internal/raster"
	"github.com/geodem-lab/solar-dem-apps/internal/solarpos"
)

// RunRaster computes sunrise and sunset for every pixel and every day
// of the configured year, writing a band per (day, edge) pair: band
// 2d-1 holds day d's sunrise, band 2d its sunset.
//
// The raster is processed in fixed-size tiles so memory stays bounded
// by tileArea*numBands regardless of raster extent. Tiles whose read or
// write fails are logged and skipped; the run continues.
func (p *Pipeline) RunRaster(src raster.Source, dst raster.Sink) error {
	width := src.Width()
	height := src.Height()
	gt := src.GeoTransform()
	nodata, hasNodata := src.NoData()
	nodataF := float32(nodata)

	year := p.cfg.Year
	daysInYear := solarpos.DaysInYear(year)
	numBands := 2 * daysInYear
	tileSize := p.cfg.TileSize

	tileArea, ok := checkBufferSize(int64(tileSize) * int64(tileSize))
	if !ok {
		return fmt.Errorf("tile size %d out of range", tileSize)
	}
	outLen, ok := checkBufferSize(int64(tileArea) * int64(numBands))
	if !ok {
		return fmt.Errorf("tile buffer %dx%dx%d bands exceeds addressable memory", tileSize, tileSize, numBands)
	}

	// Allocated once, reused for every tile.
	demBlock := make([]float32, tileArea)
	outBlock := make([]float32, outLen)

	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize
	totalTiles := tilesX * tilesY
	processed := 0

	for y := 0; y < height; y += tileSize {
		for x := 0; x < width; x += tileSize {
			bw := min(tileSize, width-x)
			bh := min(tileSize, height-y)
			area := bw * bh

			if err := src.ReadBlock(x, y, bw, bh, demBlock); err != nil {
				log.Printf("read error for tile at %d,%d: %v (skipping)", x, y, err)
				continue
			}

			parallelFor(area, p.cfg.Threads, func(start, end int) {
				for i := start; i < end; i++ {
					elevation := demBlock[i]

					if isNoData(elevation, nodataF, hasNodata) {
						for b := 0; b < numBands; b++ {
							outBlock[b*area+i] = p.cfg.NoData
						}
						continue
					}

					globalX := x + i%bw
					globalY := y + i/bw
					lon, lat := gt.PixelToGeo(globalX, globalY)
					elev := float64(elevation)

					doy := 0
					for m := 1; m <= 12; m++ {
						for d := 1; d <= solarpos.DaysInMonth(year, m); d++ {
							doy++
							sunrise := p.calc.Sunrise(lat, lon, elev, year, m, d)
							sunset := p.calc.Sunset(lat, lon, elev, year, m, d)

							riseBand := (doy - 1) * 2
							outBlock[riseBand*area+i] = float32(sunrise)
							outBlock[(riseBand+1)*area+i] = float32(sunset)
						}
					}
				}
			})

			if err := dst.WriteBlock(x, y, bw, bh, outBlock[:area*numBands]); err != nil {
				log.Printf("write error for tile at %d,%d: %v (skipping)", x, y, err)
			}

			processed++
			p.stats.AddPixels(uint64(area))
			p.stats.AddTiles(1)
			log.Printf("Processed tile %d/%d", processed, totalTiles)
		}
	}

	return nil
}
