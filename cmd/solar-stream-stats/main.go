// solar-stream-stats - Daylight summaries over ingested sun_times data
//
// Queries the table filled by solar-stream-ingest and prints per-day
// daylight duration statistics (minutes between sunrise and sunset)
// along with valid/nodata pixel counts.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/solar-stream-stats ./cmd/solar-stream-stats

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/geodem-lab/solar-dem-apps/internal/common"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const summaryQuery = `
SELECT
    day_of_year,
    count()                                   AS pixels,
    min(sunset_min - sunrise_min)             AS min_daylight,
    round(avg(sunset_min - sunrise_min), 1)   AS avg_daylight,
    max(sunset_min - sunrise_min)             AS max_daylight
FROM %s
WHERE year = ? AND sunrise_min >= 0 AND sunset_min >= 0
GROUP BY day_of_year
ORDER BY day_of_year`

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", fmt.Sprintf("%s:%d", cfg.ClickHouseHost, cfg.ClickHousePort), "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "sun_times", "ClickHouse table")
	year := flag.Int("year", 2025, "Calculation year to summarize")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "solar-stream-stats v%s - Daylight Summary Reporter\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Prints per-day daylight statistics from ingested sun_times data.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{*chHost},
		Auth: clickhouse.Auth{
			Database: *chDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		log.Fatalf("ClickHouse connection failed: %v", err)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("ClickHouse ping failed: %v", err)
	}

	tableFQN := fmt.Sprintf("%s.%s", *chDB, *chTable)

	rows, err := conn.Query(ctx, fmt.Sprintf(summaryQuery, tableFQN), int16(*year))
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	fmt.Printf("Daylight summary for %d (%s)\n", *year, tableFQN)
	fmt.Printf("%5s  %12s  %8s  %8s  %8s\n", "day", "pixels", "min", "avg", "max")

	var days int
	for rows.Next() {
		var (
			dayOfYear   int32
			pixels      uint64
			minDaylight int16
			avgDaylight float64
			maxDaylight int16
		)
		if err := rows.Scan(&dayOfYear, &pixels, &minDaylight, &avgDaylight, &maxDaylight); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}

		fmt.Printf("%5d  %12d  %8d  %8.1f  %8d\n", dayOfYear, pixels, minDaylight, avgDaylight, maxDaylight)
		days++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Row iteration failed: %v", err)
	}

	if days == 0 {
		log.Printf("No data for year %d in %s", *year, tableFQN)
	}
}
