package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
)

// lowSpaceThreshold is the free-space fraction below which a warning event is raised.
const lowSpaceThreshold = 0.10

// StorageSnapshot is the most recent view of the video library and its volume.
type StorageSnapshot struct {
	VideoCount      int64     `json:"videoCount"`
	LibraryBytes    int64     `json:"libraryBytes"`
	DiskTotalBytes  uint64    `json:"diskTotalBytes"`
	DiskFreeBytes   uint64    `json:"diskFreeBytes"`
	DiskUsedPercent float64   `json:"diskUsedPercent"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StatUpdater periodically refreshes storage statistics for the upload volume.
type StatUpdater struct {
	videoSvc  VideoStore
	eventSvc  EventRecorder
	uploadDir string
	ticker    *time.Ticker
	done      chan bool

	mu       sync.RWMutex
	snapshot StorageSnapshot
	warned   bool
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(videoSvc VideoStore, eventSvc EventRecorder, uploadDir string) *StatUpdater {
	return &StatUpdater{
		videoSvc:  videoSvc,
		eventSvc:  eventSvc,
		uploadDir: uploadDir,
		done:      make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(30 * time.Second)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.update()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

// Snapshot returns the most recently computed statistics.
func (su *StatUpdater) Snapshot() StorageSnapshot {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.snapshot
}

func (su *StatUpdater) update() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, bytes, err := su.videoSvc.StorageTotals(ctx)
	if err != nil {
		log.Error().Err(err).Msg("StatUpdater: Failed to query video totals")
		return
	}

	usage, err := disk.Usage(su.uploadDir)
	if err != nil {
		log.Error().Err(err).Str("path", su.uploadDir).Msg("StatUpdater: Failed to read disk usage")
		return
	}

	snap := StorageSnapshot{
		VideoCount:      count,
		LibraryBytes:    bytes,
		DiskTotalBytes:  usage.Total,
		DiskFreeBytes:   usage.Free,
		DiskUsedPercent: usage.UsedPercent,
		UpdatedAt:       time.Now().UTC(),
	}

	su.mu.Lock()
	su.snapshot = snap
	warned := su.warned
	low := usage.Total > 0 && float64(usage.Free)/float64(usage.Total) < lowSpaceThreshold
	su.warned = low
	su.mu.Unlock()

	// Raise the event once per low-space episode, not every tick.
	if low && !warned {
		msg := fmt.Sprintf("Upload volume is low on space: %.1f%% used", usage.UsedPercent)
		log.Warn().Str("path", su.uploadDir).Msg(msg)
		if err := su.eventSvc.CreateEvent(ctx, "storage.low_space", "warning", msg, nil); err != nil {
			log.Error().Err(err).Msg("StatUpdater: Failed to record low-space event")
		}
	}
}
