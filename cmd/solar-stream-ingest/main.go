// solar-stream-ingest - SOLAR binary stream ingestion into ClickHouse
//
// Consumes the stream emitted by solar-dem --stream (from stdin, plain
// files, or .gz captures) and inserts one row per valid pixel per day
// into solar.sun_times using the ClickHouse native protocol.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-stream-ingest ./cmd/solar-stream-ingest

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"
	"github.com/klauspost/compress/gzip"

	"github.com/geodem-lab/solar-dem-apps/internal/common"
	"github.com/geodem-lab/solar-dem-apps/internal/solardb"
	"github.com/geodem-lab/solar-dem-apps/internal/solarstream"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const (
	readBufferSize = 4 * 1024 * 1024 // 4MB read buffer
	batchLimit     = 1_000_000       // flush every 1M rows
)

// SunTimeBatch holds column data for native insert
type SunTimeBatch struct {
	Year       *proto.ColInt16
	DayOfYear  *proto.ColInt32
	X          *proto.ColUInt32
	Y          *proto.ColUInt32
	SunriseMin *proto.ColInt16
	SunsetMin  *proto.ColInt16
	SourceFile *proto.ColStr
}

func NewSunTimeBatch() *SunTimeBatch {
	return &SunTimeBatch{
		Year:       new(proto.ColInt16),
		DayOfYear:  new(proto.ColInt32),
		X:          new(proto.ColUInt32),
		Y:          new(proto.ColUInt32),
		SunriseMin: new(proto.ColInt16),
		SunsetMin:  new(proto.ColInt16),
		SourceFile: new(proto.ColStr),
	}
}

func (b *SunTimeBatch) Reset() {
	b.Year.Reset()
	b.DayOfYear.Reset()
	b.X.Reset()
	b.Y.Reset()
	b.SunriseMin.Reset()
	b.SunsetMin.Reset()
	b.SourceFile.Reset()
}

func (b *SunTimeBatch) Len() int {
	return b.Year.Rows()
}

func (b *SunTimeBatch) Input() proto.Input {
	return proto.Input{
		{Name: "year", Data: b.Year},
		{Name: "day_of_year", Data: b.DayOfYear},
		{Name: "x", Data: b.X},
		{Name: "y", Data: b.Y},
		{Name: "sunrise_min", Data: b.SunriseMin},
		{Name: "sunset_min", Data: b.SunsetMin},
		{Name: "source_file", Data: b.SourceFile},
	}
}

func flushBatch(ctx context.Context, conn *ch.Client, tableFQN string, batch *SunTimeBatch) error {
	if batch.Len() == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (year, day_of_year, x, y, sunrise_min, sunset_min, source_file) VALUES", tableFQN)
	err := conn.Do(ctx, ch.Query{
		Body:  query,
		Input: batch.Input(),
	})
	if err != nil {
		return err
	}

	batch.Reset()
	return nil
}

// ingestStream reads one SOLAR stream and appends its rows to batch,
// flushing to ClickHouse whenever the batch fills up.
func ingestStream(ctx context.Context, conn *ch.Client, tableFQN string, r io.Reader,
	sourceFile string, year int, keepNodata bool, batch *SunTimeBatch) (uint64, error) {

	sr := solarstream.NewReader(r)
	header, err := sr.ReadHeader()
	if err != nil {
		return 0, err
	}

	log.Printf("[%s] %dx%d pixels, %d days", sourceFile, header.Width, header.Height, header.DaysInYear)

	width := int(header.Width)
	pixels := header.PixelCount()
	sunrise := make([]int16, pixels)
	sunset := make([]int16, pixels)

	var rows uint64
	for {
		select {
		case <-ctx.Done():
			return rows, ctx.Err()
		default:
		}

		day, err := sr.ReadDay(sunrise, sunset)
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}

		for i := 0; i < pixels; i++ {
			if !keepNodata && sunrise[i] == solarstream.NoData && sunset[i] == solarstream.NoData {
				continue
			}

			batch.Year.Append(int16(year))
			batch.DayOfYear.Append(day)
			batch.X.Append(uint32(i % width))
			batch.Y.Append(uint32(i / width))
			batch.SunriseMin.Append(sunrise[i])
			batch.SunsetMin.Append(sunset[i])
			batch.SourceFile.Append(sourceFile)
			rows++
		}

		if batch.Len() >= batchLimit {
			if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
				return rows, err
			}
		}
	}
}

func openStream(path string) (io.ReadCloser, error) {
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

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", fmt.Sprintf("%s:%d", cfg.ClickHouseHost, cfg.ClickHousePort), "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "sun_times", "ClickHouse table")
	year := flag.Int("year", 2025, "Calculation year the streams were produced for")
	keepNodata := flag.Bool("keep-nodata", false, "Insert rows for nodata pixels as well")
	create := flag.Bool("create", false, "Create the table if it does not exist")
	truncate := flag.Bool("truncate", false, "Truncate table before insert")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-stream-ingest v%s - SOLAR Stream Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [files...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ingests SOLAR binary streams into ClickHouse.\n")
		fmt.Fprintf(os.Stderr, "Reads from stdin when no files are given. Files ending in .gz\n")
		fmt.Fprintf(os.Stderr, "are decompressed on the fly.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	log.Println("=========================================================")
	log.Printf("Solar Stream Ingest v%s", Version)
	log.Println("=========================================================")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nShutdown requested...")
		cancel()
	}()

	log.Printf("Connecting to ClickHouse at %s...", *chHost)
	conn, err := ch.Dial(ctx, ch.Options{
		Address:     *chHost,
		Database:    *chDB,
		User:        cfg.ClickHouseUser,
		Password:    cfg.ClickHousePassword,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer conn.Close()

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)
	log.Printf("Table: %s", tableFQN)

	if *create {
		log.Printf("Ensuring table %s exists (schema v%d)...", tableFQN, solardb.SchemaVersion)
		if err := conn.Do(ctx, ch.Query{Body: fmt.Sprintf(solardb.SchemaDDL, tableFQN)}); err != nil {
			log.Fatalf("Create table failed: %v", err)
		}
	}

	if *truncate {
		log.Printf("Truncating table %s...", tableFQN)
		if err := conn.Do(ctx, ch.Query{Body: fmt.Sprintf("TRUNCATE TABLE %s", tableFQN)}); err != nil {
			log.Printf("Truncate warning: %v", err)
		}
	}

	startTime := time.Now()
	var totalRows uint64
	batch := NewSunTimeBatch()

	if len(flag.Args()) == 0 {
		rows, err := ingestStream(ctx, conn, tableFQN, bufio.NewReaderSize(os.Stdin, readBufferSize),
			"stdin", *year, *keepNodata, batch)
		totalRows += rows
		if err != nil {
			log.Fatalf("stdin: ingest error: %v", err)
		}
	} else {
		for _, path := range flag.Args() {
			rc, err := openStream(path)
			if err != nil {
				log.Printf("[%s] Open error: %v", filepath.Base(path), err)
				continue
			}

			rows, err := ingestStream(ctx, conn, tableFQN, rc, filepath.Base(path), *year, *keepNodata, batch)
			rc.Close()
			totalRows += rows
			if err != nil {
				log.Printf("[%s] Ingest error: %v", filepath.Base(path), err)
				continue
			}

			log.Printf("[%s] Parsed %d rows", filepath.Base(path), rows)
		}
	}

	if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
		log.Fatalf("Insert error: %v", err)
	}

	elapsed := time.Since(startTime)

	log.Println()
	log.Println("=========================================================")
	log.Println("Final Statistics")
	log.Println("=========================================================")
	log.Printf("Total Rows: %d", totalRows)
	log.Printf("Elapsed:    %v", elapsed.Round(time.Millisecond))
	log.Printf("Rate:       %.0f rows/sec", float64(totalRows)/elapsed.Seconds())
	log.Println("=========================================================")
}
