package common

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Stats holds atomic counters for pipeline telemetry
type Stats struct {
	PixelsProcessed uint64 // Atomic counter for pixel computations
	TilesCompleted  uint64 // Atomic counter for finished tiles (raster mode)
	DaysCompleted   uint64 // Atomic counter for emitted day records (stream mode)
	BytesWritten    uint64 // Atomic counter for output bytes

	// Internal state for reporter
	running   atomic.Bool
	stopCh    chan struct{}
	silent    bool
	lastPix   uint64
	lastBytes uint64
	lastTime  time.Time
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{
		stopCh: make(chan struct{}),
	}
}

// AddPixels atomically increments the pixel computation counter
func (s *Stats) AddPixels(count uint64) {
	atomic.AddUint64(&s.PixelsProcessed, count)
}

// AddTiles atomically increments the completed tile counter
func (s *Stats) AddTiles(count uint64) {
	atomic.AddUint64(&s.TilesCompleted, count)
}

// AddDays atomically increments the emitted day record counter
func (s *Stats) AddDays(count uint64) {
	atomic.AddUint64(&s.DaysCompleted, count)
}

// AddBytes atomically increments the output byte counter
func (s *Stats) AddBytes(count uint64) {
	atomic.AddUint64(&s.BytesWritten, count)
}

// GetPixels atomically reads the pixel computation counter
func (s *Stats) GetPixels() uint64 {
	return atomic.LoadUint64(&s.PixelsProcessed)
}

// GetTiles atomically reads the completed tile counter
func (s *Stats) GetTiles() uint64 {
	return atomic.LoadUint64(&s.TilesCompleted)
}

// GetDays atomically reads the emitted day record counter
func (s *Stats) GetDays() uint64 {
	return atomic.LoadUint64(&s.DaysCompleted)
}

// GetBytes atomically reads the output byte counter
func (s *Stats) GetBytes() uint64 {
	return atomic.LoadUint64(&s.BytesWritten)
}

// SetSilent enables or disables silent mode
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// StartReporter starts a background goroutine that prints telemetry
// every 2 seconds to stderr, keeping stdout clean for binary streams
func (s *Stats) StartReporter() {
	if s.running.Load() {
		return // Already running
	}

	s.running.Store(true)
	s.lastTime = time.Now()
	s.lastPix = 0
	s.lastBytes = 0

	go s.reporterLoop()
}

// StopReporter stops the background reporter goroutine
func (s *Stats) StopReporter() {
	if !s.running.Load() {
		return
	}

	s.running.Store(false)
	close(s.stopCh)
}

func (s *Stats) reporterLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.printStatus()
		}
	}
}

func (s *Stats) printStatus() {
	if s.silent {
		return
	}

	now := time.Now()
	elapsed := now.Sub(s.lastTime).Seconds()

	if elapsed < 0.001 {
		// Avoid division by zero on first tick
		return
	}

	currentPix := s.GetPixels()
	currentBytes := s.GetBytes()

	deltaPix := currentPix - s.lastPix
	deltaBytes := currentBytes - s.lastBytes

	mpxPerSec := (float64(deltaPix) / 1_000_000) / elapsed
	mibPerSec := (float64(deltaBytes) / (1024 * 1024)) / elapsed

	fmt.Fprintf(os.Stderr, "[Progress] Compute: %.2f Mpx/s | Write: %.2f MiB/s | Tiles: %d | Days: %d | Total: %d px\n",
		mpxPerSec,
		mibPerSec,
		s.GetTiles(),
		s.GetDays(),
		currentPix,
	)

	s.lastPix = currentPix
	s.lastBytes = currentBytes
	s.lastTime = now
}

// Reset resets all counters (useful for testing or restarting)
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.PixelsProcessed, 0)
	atomic.StoreUint64(&s.TilesCompleted, 0)
	atomic.StoreUint64(&s.DaysCompleted, 0)
	atomic.StoreUint64(&s.BytesWritten, 0)
	s.lastPix = 0
	s.lastBytes = 0
	s.lastTime = time.Now()
}
