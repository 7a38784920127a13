// solar-dem - Terrain-aware sunrise/sunset computation over elevation models
//
// Computes, for every pixel of a DEM and every day of a year, the local
// sunrise and sunset time (NOAA solar position method with an
// elevation-dependent horizon dip). Two output modes:
//   - Raster (default): multi-band LZW GeoTIFF, two bands per day
//   - Stream (--stream): incremental SOLAR binary protocol on stdout
//
// Build: go build -ldflags="-s -w" -o build/solar-dem ./cmd/solar-dem

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/klauspost/pgzip"

	"github.com/geodem-lab/solar-dem-apps/internal/pipeline"
	"github.com/geodem-lab/solar-dem-apps/internal/raster"
	"github.com/geodem-lab/solar-dem-apps/internal/solarpos"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const streamBufferSize = 4 * 1024 * 1024 // 4MB write buffer for stream mode

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetOutput(os.Stderr)

	fs := flag.NewFlagSet("solar-dem", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	inputPath := fs.String("input", "", "Input DEM GeoTIFF file (required)")
	outputPath := fs.String("output", "", "Output solar times GeoTIFF file (required unless --stream)")
	streamMode := fs.Bool("stream", false, "Emit SOLAR binary stream instead of a GeoTIFF")
	streamOutput := fs.String("stream-output", "", "Stream destination file instead of stdout (.gz enables parallel gzip)")
	year := fs.Int("year", 2025, "Year for calculation (1900-2100)")
	threads := fs.Int("threads", pipeline.DefaultThreads, "Number of worker threads")
	timezone := fs.Float64("timezone", 1.0, "Timezone offset from UTC in hours")
	silent := fs.Bool("silent", false, "Suppress progress output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-dem v%s - Sunrise/Sunset Raster Calculator\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Computes per-pixel sunrise and sunset times for a full year.\n\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s --input dem.tif --output solar.tif --year 2025 --threads 96\n", os.Args[0])
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: input file is required (--input)")
		fs.Usage()
		os.Exit(1)
	}
	if !*streamMode && *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Error: output file is required (--output) unless in --stream mode")
		fs.Usage()
		os.Exit(1)
	}
	if *year < 1900 || *year > 2100 {
		fmt.Fprintln(os.Stderr, "Error: year must be between 1900 and 2100")
		os.Exit(1)
	}
	if *threads < 1 {
		fmt.Fprintln(os.Stderr, "Error: number of threads must be at least 1")
		os.Exit(1)
	}

	src, err := raster.OpenDEM(*inputPath)
	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
	defer src.Close()

	p := pipeline.New(pipeline.Config{
		Year:           *year,
		TimezoneOffset: *timezone,
		Threads:        *threads,
	})
	p.Stats().SetSilent(*silent)

	var runErr error
	if *streamMode {
		runErr = runStream(p, src, *streamOutput, *inputPath, *year)
	} else {
		runErr = runRaster(p, src, *outputPath, *year)
	}

	if runErr != nil {
		log.Printf("Error: %v", runErr)
		os.Exit(1)
	}
}

func runRaster(p *pipeline.Pipeline, src *raster.DEM, outputPath string, year int) error {
	daysInYear := solarpos.DaysInYear(year)

	log.Println("=========================================================")
	log.Printf("Solar DEM Calculator v%s", Version)
	log.Println("=========================================================")
	log.Printf("DEM dimensions: %d x %d pixels", src.Width(), src.Height())
	log.Printf("Days in year:   %d", daysInYear)
	log.Printf("Output bands:   %d", 2*daysInYear)

	dst, err := raster.CreateSolarOutput(outputPath, src.Width(), src.Height(), daysInYear,
		src.GeoTransform(), src.ProjectionWKT(), float64(pipeline.NoDataValue))
	if err != nil {
		return err
	}

	startTime := time.Now()
	p.Stats().StartReporter()

	if err := p.RunRaster(src, dst); err != nil {
		dst.Close()
		return err
	}

	p.Stats().StopReporter()

	if err := dst.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	log.Printf("Output saved to %s (%v)", outputPath, time.Since(startTime).Round(time.Millisecond))
	return nil
}

func runStream(p *pipeline.Pipeline, src *raster.DEM, streamOutput, inputPath string, year int) error {
	log.Printf("Starting binary stream for %s (Year %d)", inputPath, year)

	var w io.Writer
	switch {
	case streamOutput == "":
		w = bufio.NewWriterSize(os.Stdout, streamBufferSize)
	case strings.HasSuffix(streamOutput, ".gz"):
		f, err := os.Create(streamOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		gz := pgzip.NewWriter(f)
		defer gz.Close()
		w = gz
	default:
		f, err := os.Create(streamOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = bufio.NewWriterSize(f, streamBufferSize)
	}

	startTime := time.Now()
	p.Stats().StartReporter()

	if err := p.RunStream(src, w); err != nil {
		return err
	}

	p.Stats().StopReporter()

	log.Printf("Stream complete (%v)", time.Since(startTime).Round(time.Millisecond))
	return nil
}
