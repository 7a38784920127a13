// solar-parquet - SOLAR binary stream to partitioned Parquet
//
// Consumes the stream emitted by solar-dem --stream and writes one
// Parquet row per day (sunrise/sunset arrays in row-major pixel order)
// plus a metadata.json sidecar describing the raster geometry.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-parquet ./cmd/solar-parquet

package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/parquet-go/parquet-go"

	"github.com/geodem-lab/solar-dem-apps/internal/common"
	"github.com/geodem-lab/solar-dem-apps/internal/solarstream"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const readBufferSize = 4 * 1024 * 1024 // 4MB read buffer

// DayRecord is one Parquet row: a full day's sunrise and sunset times
// in minutes past local midnight, row-major, -1 for nodata pixels.
type DayRecord struct {
	Day     int32   `parquet:"day"`
	Sunrise []int16 `parquet:"sunrise,list"`
	Sunset  []int16 `parquet:"sunset,list"`
}

// Metadata mirrors the sidecar the downstream analytics expect.
type Metadata struct {
	Width     int32      `json:"width"`
	Height    int32      `json:"height"`
	Transform [6]float64 `json:"transform"`
	CRS       string     `json:"crs"`
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(bufio.NewReaderSize(os.Stdin, readBufferSize)), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(bufio.NewReaderSize(f, readBufferSize))
		if err != nil {
			f.Close()
			return nil, err
		}
		return struct {
			io.Reader
			io.Closer
		}{gz, f}, nil
	}

	return struct {
		io.Reader
		io.Closer
	}{bufio.NewReaderSize(f, readBufferSize), f}, nil
}

func convert(r io.Reader, outDir string) (int, error) {
	sr := solarstream.NewReader(r)
	header, err := sr.ReadHeader()
	if err != nil {
		return 0, err
	}

	log.Printf("Metadata received: %dx%d, %d days", header.Width, header.Height, header.DaysInYear)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, err
	}

	meta := Metadata{
		Width:     header.Width,
		Height:    header.Height,
		Transform: header.GeoTransform,
		CRS:       "EPSG:4326",
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(outDir, "metadata.json"), metaBytes, 0o644); err != nil {
		return 0, err
	}

	f, err := os.Create(filepath.Join(outDir, "data.parquet"))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	pw := parquet.NewGenericWriter[DayRecord](f, parquet.Compression(&parquet.Snappy))

	pixels := header.PixelCount()
	sunrise := make([]int16, pixels)
	sunset := make([]int16, pixels)

	days := 0
	for {
		day, err := sr.ReadDay(sunrise, sunset)
		if err == io.EOF {
			break
		}
		if err != nil {
			return days, err
		}

		// The writer retains row slices until its buffer flushes, so
		// each row gets its own copy of the reused read buffers.
		rec := DayRecord{
			Day:     day,
			Sunrise: append([]int16(nil), sunrise...),
			Sunset:  append([]int16(nil), sunset...),
		}
		if _, err := pw.Write([]DayRecord{rec}); err != nil {
			return days, fmt.Errorf("day %d: %w", day, err)
		}

		days++
		if days%10 == 0 {
			log.Printf("Processed day %d/%d", days, header.DaysInYear)
		}
	}

	if err := pw.Close(); err != nil {
		return days, err
	}

	return days, nil
}

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg := common.DefaultConfig()

	input := flag.String("input", "", "SOLAR stream file (.gz supported); reads stdin when empty")
	outputDir := flag.String("output-dir", cfg.ParquetDataDir(), "Base directory for Parquet output")
	partition := flag.String("partition", "", "Partition subdirectory (e.g. dept=38)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-parquet v%s - SOLAR Stream to Parquet Converter\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Writes data.parquet (one row per day, snappy) and metadata.json.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	outDir := *outputDir
	if *partition != "" {
		outDir = filepath.Join(outDir, *partition)
	}

	rc, err := openInput(*input)
	if err != nil {
		log.Fatalf("Open error: %v", err)
	}
	defer rc.Close()

	startTime := time.Now()

	days, err := convert(rc, outDir)
	if err != nil {
		log.Fatalf("Conversion failed after %d days: %v", days, err)
	}

	log.Printf("Wrote %d day records to %s (%v)", days, outDir, time.Since(startTime).Round(time.Millisecond))
}
