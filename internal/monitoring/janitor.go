package monitoring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// orphanMinAge keeps the sweep away from uploads that are still in flight.
const orphanMinAge = time.Hour

// Janitor removes files in the upload directory that have no video record,
// typically leftovers from uploads that failed after a partial write.
type Janitor struct {
	videoSvc  VideoStore
	eventSvc  EventRecorder
	uploadDir string
	schedule  cron.Schedule
	done      chan bool
}

// NewJanitor creates a Janitor that sweeps on the given cron expression.
func NewJanitor(videoSvc VideoStore, eventSvc EventRecorder, uploadDir, cronExpr string) (*Janitor, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", cronExpr, err)
	}
	return &Janitor{
		videoSvc:  videoSvc,
		eventSvc:  eventSvc,
		uploadDir: uploadDir,
		schedule:  schedule,
		done:      make(chan bool),
	}, nil
}

// Run waits for each scheduled time and sweeps the upload directory.
func (j *Janitor) Run() {
	log.Info().Msg("Starting upload janitor...")
	for {
		next := j.schedule.Next(time.Now())
		select {
		case <-j.done:
			log.Info().Msg("Stopping upload janitor.")
			return
		case <-time.After(time.Until(next)):
			j.Sweep()
		}
	}
}

// Stop halts the janitor.
func (j *Janitor) Stop() {
	j.done <- true
}

// Sweep deletes unreferenced files older than orphanMinAge and reports how
// many were removed.
func (j *Janitor) Sweep() (removed int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	known, err := j.videoSvc.StoredPaths(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Janitor: Failed to load recorded paths")
		return 0
	}

	entries, err := os.ReadDir(j.uploadDir)
	if err != nil {
		log.Error().Err(err).Str("path", j.uploadDir).Msg("Janitor: Failed to read upload directory")
		return 0
	}

	cutoff := time.Now().Add(-orphanMinAge)
	for _, entry := range entries {
		if entry.IsDir() || known[entry.Name()] {
			continue
		}
		// Temp files from in-flight uploads carry a ".part-" prefix; everything
		// unreferenced is fair game once it is old enough.
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		full := filepath.Join(j.uploadDir, entry.Name())
		if err := os.Remove(full); err != nil {
			log.Warn().Err(err).Str("path", full).Msg("Janitor: Failed to remove orphaned file")
			continue
		}
		log.Info().Str("path", full).Msg("Janitor: Removed orphaned file")
		removed++
	}

	if removed > 0 {
		msg := fmt.Sprintf("Removed %d orphaned upload file%s", removed, plural(removed))
		if err := j.eventSvc.CreateEvent(ctx, "janitor.sweep", "info", msg, nil); err != nil {
			log.Error().Err(err).Msg("Janitor: Failed to record sweep event")
		}
	}
	return removed
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
