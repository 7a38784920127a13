package pipeline

import (
	"fmt"
	"io"
	"log"

	"github.com/geodem-lab/solar-dem-apps/internal/raster"
	"github.com/geodem-lab/solar-dem-apps/internal/solarpos"
	"github.com/geodem-lab/solar-dem-apps/internal/solarstream"
)

// RunStream reads the whole elevation band once, then emits a SOLAR
// binary stream to w: the fixed header followed by one record per
// calendar day, flushed as soon as it is complete so a downstream
// consumer can process days incrementally.
//
// Two full-size int16 buffers are reused across days; no full-year
// buffer is ever allocated. A day whose write fails is logged and
// skipped; the run continues with the next day.
func (p *Pipeline) RunStream(src raster.Source, w io.Writer) error {
	width := src.Width()
	height := src.Height()
	gt := src.GeoTransform()
	nodata, hasNodata := src.NoData()
	nodataF := float32(nodata)

	totalPixels, ok := checkBufferSize(int64(width) * int64(height))
	if !ok {
		return fmt.Errorf("raster %dx%d exceeds addressable memory", width, height)
	}

	// Single-band full read; only one band is ever held resident.
	dem := make([]float32, totalPixels)
	if err := src.ReadBlock(0, 0, width, height, dem); err != nil {
		return fmt.Errorf("read elevation data: %w", err)
	}

	year := p.cfg.Year
	daysInYear := solarpos.DaysInYear(year)

	sw := solarstream.NewWriter(w)
	header := solarstream.Header{
		Width:        int32(width),
		Height:       int32(height),
		DaysInYear:   int32(daysInYear),
		GeoTransform: gt,
	}
	if err := sw.WriteHeader(header); err != nil {
		return err
	}
	p.stats.AddBytes(solarstream.HeaderSize)

	sunrise := make([]int16, totalPixels)
	sunset := make([]int16, totalPixels)
	recordSize := header.RecordSize()

	solarpos.ForEachDay(year, func(doy, month, day int) {
		parallelFor(totalPixels, p.cfg.Threads, func(start, end int) {
			for i := start; i < end; i++ {
				elevation := dem[i]

				if isNoData(elevation, nodataF, hasNodata) {
					sunrise[i] = solarstream.NoData
					sunset[i] = solarstream.NoData
					continue
				}

				lon, lat := gt.PixelToGeo(i%width, i/width)
				elev := float64(elevation)

				sunrise[i] = solarstream.Minutes(p.calc.Sunrise(lat, lon, elev, year, month, day))
				sunset[i] = solarstream.Minutes(p.calc.Sunset(lat, lon, elev, year, month, day))
			}
		})
		p.stats.AddPixels(uint64(totalPixels))

		if err := sw.WriteDay(int32(doy), sunrise, sunset); err != nil {
			log.Printf("write error for day %d: %v (skipping)", doy, err)
			return
		}

		p.stats.AddDays(1)
		p.stats.AddBytes(uint64(recordSize))

		if doy%10 == 0 {
			log.Printf("Processed day %d/%d", doy, daysInYear)
		}
	})

	return nil
}
