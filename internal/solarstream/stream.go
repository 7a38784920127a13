// Package solarstream implements the SOLAR binary protocol: a fixed
// 65-byte header followed by one record per calendar day, each holding
// sunrise and sunset times as int16 minutes past local midnight.
//
// Layout (little-endian):
//
//	header:  "SOLAR" | int32 width | int32 height | int32 daysInYear | 6x float64 geotransform
//	record:  int32 dayOfYear | width*height int16 sunrise | width*height int16 sunset
//
// Records carry no length field; consumers size the arrays from the
// header. Nodata and polar day/night pixels are encoded as -1.
package solarstream

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/geodem-lab/solar-dem-apps/internal/geo"
)

// Magic is the 5-byte ASCII stream signature, written without a
// terminator.
const Magic = "SOLAR"

// HeaderSize is the fixed byte length of the stream header.
const HeaderSize = 5 + 3*4 + 6*8

// NoData marks a pixel with no valid sunrise or sunset in a record.
const NoData int16 = -1

// Header describes the raster the stream was computed from.
type Header struct {
	Width        int32
	Height       int32
	DaysInYear   int32
	GeoTransform geo.GeoTransform
}

// PixelCount returns width*height as an int.
func (h Header) PixelCount() int {
	return int(h.Width) * int(h.Height)
}

// RecordSize returns the byte length of one per-day record.
func (h Header) RecordSize() int {
	return 4 + 2*h.PixelCount()*2
}

// Minutes converts a decimal-hour solar time to int16 minutes past
// midnight. Negative inputs (the calculator's invalid sentinel) map to
// NoData.
func Minutes(hours float64) int16 {
	if hours < 0 {
		return NoData
	}
	return int16(math.Round(hours * 60.0))
}

// Writer emits a SOLAR stream. The header and every record are flushed
// as soon as they are written so that a downstream consumer can process
// days incrementally.
type Writer struct {
	w       io.Writer
	pixels  int
	scratch []byte
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader writes the 65-byte stream header. It must be called
// exactly once, before any records.
func (sw *Writer) WriteHeader(h Header) error {
	buf := make([]byte, HeaderSize)
	copy(buf[0:5], Magic)
	binary.LittleEndian.PutUint32(buf[5:], uint32(h.Width))
	binary.LittleEndian.PutUint32(buf[9:], uint32(h.Height))
	binary.LittleEndian.PutUint32(buf[13:], uint32(h.DaysInYear))
	for i, t := range h.GeoTransform {
		binary.LittleEndian.PutUint64(buf[17+8*i:], math.Float64bits(t))
	}

	if _, err := sw.w.Write(buf); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	sw.pixels = h.PixelCount()
	sw.scratch = make([]byte, 2*sw.pixels)
	return sw.flush()
}

// WriteDay writes one per-day record. Both slices must hold exactly
// width*height values in row-major order.
func (sw *Writer) WriteDay(dayOfYear int32, sunrise, sunset []int16) error {
	if len(sunrise) != sw.pixels || len(sunset) != sw.pixels {
		return fmt.Errorf("day %d: array length %d/%d, want %d", dayOfYear, len(sunrise), len(sunset), sw.pixels)
	}

	var dayBuf [4]byte
	binary.LittleEndian.PutUint32(dayBuf[:], uint32(dayOfYear))
	if _, err := sw.w.Write(dayBuf[:]); err != nil {
		return fmt.Errorf("day %d: %w", dayOfYear, err)
	}

	if err := sw.writeInt16s(sunrise); err != nil {
		return fmt.Errorf("day %d sunrise: %w", dayOfYear, err)
	}
	if err := sw.writeInt16s(sunset); err != nil {
		return fmt.Errorf("day %d sunset: %w", dayOfYear, err)
	}

	return sw.flush()
}

func (sw *Writer) writeInt16s(values []int16) error {
	for i, v := range values {
		binary.LittleEndian.PutUint16(sw.scratch[2*i:], uint16(v))
	}
	_, err := sw.w.Write(sw.scratch)
	return err
}

// flush pushes buffered bytes down to the consumer when the underlying
// writer supports it (bufio, pgzip).
func (sw *Writer) flush() error {
	if f, ok := sw.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Reader consumes a SOLAR stream.
type Reader struct {
	r      io.Reader
	header Header
	buf    []byte
}

// NewReader returns a Reader consuming from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadHeader reads and validates the stream header. It must be called
// exactly once, before any records.
func (sr *Reader) ReadHeader() (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(sr.r, buf); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	if string(buf[0:5]) != Magic {
		return Header{}, fmt.Errorf("read header: bad magic %q", buf[0:5])
	}

	var h Header
	h.Width = int32(binary.LittleEndian.Uint32(buf[5:]))
	h.Height = int32(binary.LittleEndian.Uint32(buf[9:]))
	h.DaysInYear = int32(binary.LittleEndian.Uint32(buf[13:]))
	for i := range h.GeoTransform {
		h.GeoTransform[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[17+8*i:]))
	}

	if h.Width <= 0 || h.Height <= 0 || h.DaysInYear <= 0 {
		return Header{}, fmt.Errorf("read header: invalid dimensions %dx%d, %d days", h.Width, h.Height, h.DaysInYear)
	}

	sr.header = h
	sr.buf = make([]byte, 2*h.PixelCount())
	return h, nil
}

// ReadDay reads the next per-day record into the provided slices, which
// must hold exactly width*height values each. It returns io.EOF cleanly
// at the end of the stream.
func (sr *Reader) ReadDay(sunrise, sunset []int16) (int32, error) {
	pixels := sr.header.PixelCount()
	if len(sunrise) != pixels || len(sunset) != pixels {
		return 0, fmt.Errorf("array length %d/%d, want %d", len(sunrise), len(sunset), pixels)
	}

	var dayBuf [4]byte
	if _, err := io.ReadFull(sr.r, dayBuf[:]); err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("read day id: %w", err)
	}
	day := int32(binary.LittleEndian.Uint32(dayBuf[:]))

	if err := sr.readInt16s(sunrise); err != nil {
		return 0, fmt.Errorf("day %d sunrise: %w", day, err)
	}
	if err := sr.readInt16s(sunset); err != nil {
		return 0, fmt.Errorf("day %d sunset: %w", day, err)
	}

	return day, nil
}

func (sr *Reader) readInt16s(values []int16) error {
	if _, err := io.ReadFull(sr.r, sr.buf); err != nil {
		return err
	}
	for i := range values {
		values[i] = int16(binary.LittleEndian.Uint16(sr.buf[2*i:]))
	}
	return nil
}
