package pipeline

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodem-lab/solar-dem-apps/internal/geo"
	"github.com/geodem-lab/solar-dem-apps/internal/solarpos"
	"github.com/geodem-lab/solar-dem-apps/internal/solarstream"
)

var testGT = geo.GeoTransform{5.0, 0.01, 0, 46.0, 0, -0.01}

// fakeDEM is an in-memory raster.Source.
type fakeDEM struct {
	width, height int
	data          []float32
	nodata        float64
	hasNodata     bool
	failTiles     map[[2]int]bool
}

func (f *fakeDEM) Width() int                     { return f.width }
func (f *fakeDEM) Height() int                    { return f.height }
func (f *fakeDEM) GeoTransform() geo.GeoTransform { return testGT }
func (f *fakeDEM) ProjectionWKT() string          { return "" }
func (f *fakeDEM) NoData() (float64, bool)        { return f.nodata, f.hasNodata }
func (f *fakeDEM) Close() error                   { return nil }

func (f *fakeDEM) ReadBlock(x, y, w, h int, buf []float32) error {
	if f.failTiles[[2]int{x, y}] {
		return fmt.Errorf("simulated read failure at %d,%d", x, y)
	}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			buf[row*w+col] = f.data[(y+row)*f.width+(x+col)]
		}
	}
	return nil
}

// fakeSink records every multi-band block write.
type fakeSink struct {
	writes []blockWrite
}

type blockWrite struct {
	x, y, w, h int
	bands      []float32
}

func (f *fakeSink) WriteBlock(x, y, w, h int, bands []float32) error {
	f.writes = append(f.writes, blockWrite{x, y, w, h, append([]float32(nil), bands...)})
	return nil
}

func (f *fakeSink) Close() error { return nil }

func TestParallelForCoversRangeExactlyOnce(t *testing.T) {
	const n = 50_000
	counts := make([]int32, n)

	parallelFor(n, 7, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&counts[i], 1)
		}
	})

	for i, c := range counts {
		require.Equal(t, int32(1), c, "index %d", i)
	}
}

func TestParallelForMoreWorkersThanItems(t *testing.T) {
	var total atomic.Int64
	parallelFor(3, 96, func(start, end int) {
		total.Add(int64(end - start))
	})
	assert.Equal(t, int64(3), total.Load())
}

func TestRunRasterBandIndexing(t *testing.T) {
	year := 2023
	days := solarpos.DaysInYear(year)
	numBands := 2 * days

	src := &fakeDEM{
		width: 2, height: 2,
		data:      []float32{850, 1200, 640, 975},
		nodata:    -32768,
		hasNodata: true,
	}
	dst := &fakeSink{}

	p := New(Config{Year: year, TimezoneOffset: 1.0, Threads: 4})
	p.Stats().SetSilent(true)
	require.NoError(t, p.RunRaster(src, dst))

	require.Len(t, dst.writes, 1)
	w := dst.writes[0]
	assert.Equal(t, 0, w.x)
	assert.Equal(t, 0, w.y)
	assert.Equal(t, 2, w.w)
	assert.Equal(t, 2, w.h)
	require.Len(t, w.bands, 4*numBands)

	// Spot-check a few days against the engine directly: day d's
	// sunrise lands in 1-based band 2d-1, sunset in band 2d.
	calc := solarpos.NewCalculator(1.0)
	area := 4
	for _, tc := range []struct{ doy, month, day int }{
		{1, 1, 1},
		{59, 2, 28},
		{60, 3, 1},
		{172, 6, 21},
		{365, 12, 31},
	} {
		for i := 0; i < area; i++ {
			lon, lat := testGT.PixelToGeo(i%2, i/2)
			elev := float64(src.data[i])

			wantRise := float32(calc.Sunrise(lat, lon, elev, year, tc.month, tc.day))
			wantSet := float32(calc.Sunset(lat, lon, elev, year, tc.month, tc.day))

			riseBand := 2*tc.doy - 1
			setBand := 2 * tc.doy
			assert.Equal(t, wantRise, w.bands[(riseBand-1)*area+i], "day %d sunrise pixel %d", tc.doy, i)
			assert.Equal(t, wantSet, w.bands[(setBand-1)*area+i], "day %d sunset pixel %d", tc.doy, i)
		}
	}
}

func TestRunRasterNoDataPropagation(t *testing.T) {
	year := 2023
	numBands := 2 * solarpos.DaysInYear(year)

	src := &fakeDEM{
		width: 2, height: 2,
		data:      []float32{float32(math.NaN()), -32768, 0.0, 1500},
		nodata:    -32768,
		hasNodata: true,
	}
	dst := &fakeSink{}

	p := New(Config{Year: year, TimezoneOffset: 1.0, Threads: 2})
	p.Stats().SetSilent(true)
	require.NoError(t, p.RunRaster(src, dst))

	require.Len(t, dst.writes, 1)
	w := dst.writes[0]
	area := 4

	// Pixels 0 (NaN), 1 (nodata sentinel) and 2 (exactly zero) carry
	// the output nodata constant on every band; pixel 3 never does.
	for b := 0; b < numBands; b++ {
		for _, i := range []int{0, 1, 2} {
			assert.Equal(t, NoDataValue, w.bands[b*area+i], "band %d pixel %d", b+1, i)
		}
		assert.NotEqual(t, NoDataValue, w.bands[b*area+3], "band %d pixel 3", b+1)
	}
}

func TestRunRasterSkipsFailedTile(t *testing.T) {
	src := &fakeDEM{
		width: 2, height: 1,
		data:      []float32{100, 200},
		failTiles: map[[2]int]bool{{1, 0}: true},
	}
	dst := &fakeSink{}

	p := New(Config{Year: 2023, Threads: 1, TileSize: 1})
	p.Stats().SetSilent(true)

	// A failed tile read is not fatal; the run continues and the tile
	// is simply absent from the output.
	require.NoError(t, p.RunRaster(src, dst))

	require.Len(t, dst.writes, 1)
	assert.Equal(t, 0, dst.writes[0].x)
	assert.Equal(t, uint64(1), p.Stats().GetTiles())
}

func TestRunStreamMatchesEngine(t *testing.T) {
	year := 2023
	days := solarpos.DaysInYear(year)

	src := &fakeDEM{
		width: 3, height: 2,
		data:      []float32{850, 0.0, 1200, 640, float32(math.NaN()), 975},
		nodata:    -32768,
		hasNodata: true,
	}

	var buf bytes.Buffer
	p := New(Config{Year: year, TimezoneOffset: 1.0, Threads: 4})
	p.Stats().SetSilent(true)
	require.NoError(t, p.RunStream(src, &buf))

	sr := solarstream.NewReader(&buf)
	header, err := sr.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, int32(3), header.Width)
	assert.Equal(t, int32(2), header.Height)
	assert.Equal(t, int32(days), header.DaysInYear)
	assert.Equal(t, testGT, header.GeoTransform)

	calc := solarpos.NewCalculator(1.0)
	rise := make([]int16, 6)
	set := make([]int16, 6)

	wantDoy := int32(0)
	solarpos.ForEachDay(year, func(doy, month, day int) {
		wantDoy++
		gotDay, err := sr.ReadDay(rise, set)
		require.NoError(t, err)
		require.Equal(t, wantDoy, gotDay)

		for i := 0; i < 6; i++ {
			if i == 1 || i == 4 { // zero elevation, NaN
				assert.Equal(t, solarstream.NoData, rise[i])
				assert.Equal(t, solarstream.NoData, set[i])
				continue
			}

			lon, lat := testGT.PixelToGeo(i%3, i/3)
			elev := float64(src.data[i])
			assert.Equal(t, solarstream.Minutes(calc.Sunrise(lat, lon, elev, year, month, day)), rise[i])
			assert.Equal(t, solarstream.Minutes(calc.Sunset(lat, lon, elev, year, month, day)), set[i])
		}
	})
	require.Equal(t, int32(days), wantDoy)

	_, err = sr.ReadDay(rise, set)
	assert.Equal(t, io.EOF, err)
}

func TestModesAgreeModuloQuantization(t *testing.T) {
	year := 2024
	src := &fakeDEM{
		width: 1, height: 1,
		data: []float32{1850},
	}

	dst := &fakeSink{}
	p := New(Config{Year: year, TimezoneOffset: 1.0, Threads: 1})
	p.Stats().SetSilent(true)
	require.NoError(t, p.RunRaster(src, dst))

	var buf bytes.Buffer
	require.NoError(t, p.RunStream(src, &buf))

	sr := solarstream.NewReader(&buf)
	_, err := sr.ReadHeader()
	require.NoError(t, err)

	rise := make([]int16, 1)
	set := make([]int16, 1)
	bands := dst.writes[0].bands

	for doy := 1; doy <= solarpos.DaysInYear(year); doy++ {
		_, err := sr.ReadDay(rise, set)
		require.NoError(t, err)

		assert.Equal(t, solarstream.Minutes(float64(bands[2*doy-2])), rise[0], "day %d", doy)
		assert.Equal(t, solarstream.Minutes(float64(bands[2*doy-1])), set[0], "day %d", doy)
	}
}

// dayDropWriter fails the write of one specific day-id framing word,
// simulating a transient output failure for a single record.
type dayDropWriter struct {
	buf     bytes.Buffer
	dropDay uint32
}

func (w *dayDropWriter) Write(p []byte) (int, error) {
	if len(p) == 4 && binary.LittleEndian.Uint32(p) == w.dropDay {
		return 0, fmt.Errorf("simulated write failure")
	}
	return w.buf.Write(p)
}

func TestRunStreamSkipsFailedDay(t *testing.T) {
	year := 2023
	src := &fakeDEM{
		width: 1, height: 1,
		data: []float32{500},
	}

	w := &dayDropWriter{dropDay: 42}
	p := New(Config{Year: year, Threads: 1})
	p.Stats().SetSilent(true)
	require.NoError(t, p.RunStream(src, w))

	sr := solarstream.NewReader(&w.buf)
	_, err := sr.ReadHeader()
	require.NoError(t, err)

	rise := make([]int16, 1)
	set := make([]int16, 1)

	var got []int32
	for {
		day, err := sr.ReadDay(rise, set)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, day)
	}

	// Day 42 is missing; everything else is present and in order.
	require.Len(t, got, solarpos.DaysInYear(year)-1)
	for i, day := range got {
		want := int32(i + 1)
		if want >= 42 {
			want++
		}
		assert.Equal(t, want, day)
	}

	assert.Equal(t, uint64(solarpos.DaysInYear(year)-1), p.Stats().GetDays())
}
